package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flight-delay-prediction/internal/features"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFlights(t *testing.T) {
	path := writeFile(t, "flights.csv",
		"FL_DATE,AIRLINE,ORIGIN,DEST,CRS_DEP_TIME,ARR_DELAY\n"+
			"2023-03-01,UA,SFO,LAX,900.0,23\n"+
			"2023-03-02,AA,LAX,SFO,1745,\n"+
			"not-a-date,DL,JFK,SEA,700,5\n")

	flights, err := LoadFlights(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(flights) != 2 {
		t.Fatalf("expected 2 usable rows, got %d", len(flights))
	}
	if flights[0].CRSDepTime != 900 {
		t.Errorf("expected CRS_DEP_TIME 900, got %d", flights[0].CRSDepTime)
	}
	if flights[0].ArrDelay == nil || *flights[0].ArrDelay != 23 {
		t.Errorf("expected arrival delay 23, got %v", flights[0].ArrDelay)
	}
	if flights[1].ArrDelay != nil {
		t.Errorf("empty delay should load as missing, got %v", *flights[1].ArrDelay)
	}
}

func TestLoadFlightsMissingColumnIsFatal(t *testing.T) {
	path := writeFile(t, "flights.csv",
		"FL_DATE,AIRLINE,ORIGIN,CRS_DEP_TIME,ARR_DELAY\n"+
			"2023-03-01,UA,SFO,900,23\n")

	_, err := LoadFlights(path)
	if !errors.Is(err, features.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadWeather(t *testing.T) {
	path := writeFile(t, "weather.csv",
		"time,airport,tavg,tmin,tmax,prcp,snow,wdir,wspd,wpgt,pres,tsun\n"+
			"2023-03-01,SFO,12.4,8.1,16.0,0.0,,210,18.5,,1016.2,\n")

	obs, err := LoadWeather(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].Airport != "SFO" {
		t.Errorf("expected airport SFO, got %q", obs[0].Airport)
	}
	if obs[0].Tavg == nil || *obs[0].Tavg != 12.4 {
		t.Errorf("expected tavg 12.4, got %v", obs[0].Tavg)
	}
	if obs[0].Snow != nil {
		t.Errorf("empty snow should be missing, got %v", *obs[0].Snow)
	}
}

func TestWriteWeatherRoundTrip(t *testing.T) {
	tavg := 12.4
	path := filepath.Join(t.TempDir(), "weather.csv")
	day, _ := time.Parse("2006-01-02", "2023-03-01")

	err := WriteWeather(path, []features.WeatherObs{
		{Airport: "SFO", Date: day, Tavg: &tavg},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs, err := LoadWeather(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 1 || obs[0].Airport != "SFO" {
		t.Fatalf("unexpected observations: %+v", obs)
	}
	if obs[0].Tavg == nil || *obs[0].Tavg != 12.4 {
		t.Errorf("expected tavg 12.4, got %v", obs[0].Tavg)
	}
	if obs[0].Prcp != nil {
		t.Errorf("missing measurement should round-trip as missing, got %v", *obs[0].Prcp)
	}
}

func TestAppendWeatherWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv")
	day1, _ := time.Parse("2006-01-02", "2023-03-01")
	day2, _ := time.Parse("2006-01-02", "2023-03-02")

	if err := AppendWeather(path, []features.WeatherObs{{Airport: "SFO", Date: day1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := AppendWeather(path, []features.WeatherObs{{Airport: "SFO", Date: day2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obs, err := LoadWeather(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations across appends, got %d", len(obs))
	}
	if !obs[1].Date.Equal(day2) {
		t.Errorf("expected second append to carry %v, got %v", day2, obs[1].Date)
	}
}

func TestLoadWeatherMissingColumnIsFatal(t *testing.T) {
	path := writeFile(t, "weather.csv",
		"time,airport,tavg\n2023-03-01,SFO,12.4\n")

	_, err := LoadWeather(path)
	if !errors.Is(err, features.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
