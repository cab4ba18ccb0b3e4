package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAirports(t *testing.T) {
	path := writeTempFile(t, "airports.csv", `ident,iata_code,latitude_deg,longitude_deg
KSFO,SFO,37.6188,-122.375
KLAX,LAX,33.9425,-118.408
KXXX,,40.0,-100.0
KSFO2,SFO,0,0
KBAD,BAD,not-a-number,-100.0
`)

	airports, err := LoadAirports(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(airports) != 2 {
		t.Fatalf("expected 2 airports, got %d: %+v", len(airports), airports)
	}
	if airports[0].IATA != "SFO" || airports[0].Lat != 37.6188 {
		t.Errorf("duplicate IATA code must keep the first row, got %+v", airports[0])
	}
	if airports[1].IATA != "LAX" {
		t.Errorf("expected LAX second, got %+v", airports[1])
	}
}

func TestLoadAirportsMissingColumn(t *testing.T) {
	path := writeTempFile(t, "airports.csv", "ident,latitude_deg,longitude_deg\nKSFO,37.6,-122.4\n")
	if _, err := LoadAirports(path); err == nil {
		t.Fatal("expected an error for a missing iata_code column")
	}
}

func TestArchiveFetchMapsDailyFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start_date") != "2023-01-01" || q.Get("end_date") != "2023-01-02" {
			t.Errorf("unexpected date range: %v", q)
		}
		fmt.Fprint(w, `{"daily":{
			"time":["2023-01-01","2023-01-02"],
			"temperature_2m_mean":[10.5,null],
			"temperature_2m_min":[5,6],
			"temperature_2m_max":[15,16],
			"precipitation_sum":[0.4,0],
			"snowfall_sum":[1.2,0],
			"winddirection_10m_dominant":[270,180],
			"windspeed_10m_max":[22,18],
			"windgusts_10m_max":[35,28],
			"pressure_msl_mean":[1013,1015],
			"sunshine_duration":[3600,7200]
		}}`)
	}))
	defer srv.Close()

	c := NewArchiveClient(srv.Client())
	c.baseURL = srv.URL

	start, _ := time.Parse("2006-01-02", "2023-01-01")
	end, _ := time.Parse("2006-01-02", "2023-01-02")
	obs, err := c.Fetch(context.Background(), Airport{IATA: "SFO", Lat: 37.6, Lon: -122.4}, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}

	first := obs[0]
	if first.Airport != "SFO" {
		t.Errorf("expected airport SFO, got %q", first.Airport)
	}
	if first.Tavg == nil || *first.Tavg != 10.5 {
		t.Errorf("unexpected tavg: %v", first.Tavg)
	}
	if first.Snow == nil || *first.Snow != 12 {
		t.Errorf("snowfall should convert cm to mm, got %v", first.Snow)
	}
	if first.Tsun == nil || *first.Tsun != 60 {
		t.Errorf("sunshine should convert seconds to minutes, got %v", first.Tsun)
	}
	if obs[1].Tavg != nil {
		t.Errorf("null measurement should stay missing, got %v", *obs[1].Tavg)
	}
}

func TestArchiveBackfillSkipsFailingAirports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("latitude") == "0.000000" {
			http.Error(w, "bad coords", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, `{"daily":{"time":["2023-01-01"],"temperature_2m_mean":[10]}}`)
	}))
	defer srv.Close()

	c := NewArchiveClient(srv.Client())
	c.baseURL = srv.URL

	day, _ := time.Parse("2006-01-02", "2023-01-01")
	obs := c.Backfill(context.Background(), []Airport{
		{IATA: "BAD", Lat: 0, Lon: 0},
		{IATA: "SFO", Lat: 37.6, Lon: -122.4},
	}, day, day)

	if len(obs) != 1 || obs[0].Airport != "SFO" {
		t.Errorf("expected only the healthy airport's data, got %+v", obs)
	}
}
