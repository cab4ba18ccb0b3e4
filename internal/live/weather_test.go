package live

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestWeatherClient(srv *httptest.Server) *WeatherClient {
	c := NewWeatherClient(srv.Client(), "test-key")
	c.baseURL = srv.URL
	return c
}

func TestWeatherCurrentBuildsFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "SFO" {
			t.Errorf("expected query SFO, got %q", got)
		}
		fmt.Fprint(w, `{"current":{
			"temperature":14,
			"precip":0.3,
			"wind_speed":30,
			"weather_descriptions":["Light Snow Showers"]
		}}`)
	}))
	defer srv.Close()

	wf, err := newTestWeatherClient(srv).Current(context.Background(), "SFO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := WeatherFeatures{TempDiff: 6, Precip: 0.3, Snow: 1, HeavyWind: 1}
	if wf != want {
		t.Errorf("got %+v, want %+v", wf, want)
	}
}

func TestWeatherHeavyWindThreshold(t *testing.T) {
	for _, tc := range []struct {
		wind float64
		want int
	}{{25, 0}, {25.1, 1}, {20, 0}} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"current":{"temperature":20,"wind_speed":%v,"weather_descriptions":[]}}`, tc.wind)
		}))
		wf, err := newTestWeatherClient(srv).Current(context.Background(), "SFO")
		srv.Close()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if wf.HeavyWind != tc.want {
			t.Errorf("wind %v: expected heavy-wind %d, got %d", tc.wind, tc.want, wf.HeavyWind)
		}
	}
}

func TestWeatherMissingTemperatureMeansNoDeviation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"current":{"weather_descriptions":["Sunny"]}}`)
	}))
	defer srv.Close()

	wf, err := newTestWeatherClient(srv).Current(context.Background(), "SFO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.TempDiff != 0 {
		t.Errorf("missing temperature should read as baseline, got deviation %v", wf.TempDiff)
	}
}

func TestWeatherErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// weatherstack reports failures with HTTP 200.
		fmt.Fprint(w, `{"success":false,"error":{"code":104,"info":"usage limit reached"}}`)
	}))
	defer srv.Close()

	wf, err := newTestWeatherClient(srv).Current(context.Background(), "SFO")
	if err == nil {
		t.Fatal("expected an error for a failure body")
	}
	if wf != DefaultWeather() {
		t.Errorf("expected neutral defaults on failure, got %+v", wf)
	}
}

func TestWeatherTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestWeatherClient(srv)
	c.caller.maxRetries = 0
	c.caller.initialBackoff = 0

	wf, err := c.Current(context.Background(), "SFO")
	if err == nil {
		t.Fatal("expected an error for a 5xx response")
	}
	if wf != DefaultWeather() {
		t.Errorf("expected neutral defaults on transport failure, got %+v", wf)
	}
}
