package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"flight-delay-prediction/internal/features"
	"flight-delay-prediction/internal/live"
)

// ArchiveClient pulls daily weather aggregates from the Open-Meteo historical
// archive. No API key is required.
type ArchiveClient struct {
	baseURL string
	caller  *live.Caller
}

func NewArchiveClient(client *http.Client) *ArchiveClient {
	return &ArchiveClient{
		baseURL: "https://archive-api.open-meteo.com/v1/archive",
		caller:  live.NewCaller(client, "openmeteo-archive", 3),
	}
}

var dailyFields = []string{
	"temperature_2m_mean",
	"temperature_2m_min",
	"temperature_2m_max",
	"precipitation_sum",
	"snowfall_sum",
	"winddirection_10m_dominant",
	"windspeed_10m_max",
	"windgusts_10m_max",
	"pressure_msl_mean",
	"sunshine_duration",
}

type archiveResponse struct {
	Daily struct {
		Time     []string   `json:"time"`
		Tavg     []*float64 `json:"temperature_2m_mean"`
		Tmin     []*float64 `json:"temperature_2m_min"`
		Tmax     []*float64 `json:"temperature_2m_max"`
		Prcp     []*float64 `json:"precipitation_sum"`
		Snowfall []*float64 `json:"snowfall_sum"`
		Wdir     []*float64 `json:"winddirection_10m_dominant"`
		Wspd     []*float64 `json:"windspeed_10m_max"`
		Wpgt     []*float64 `json:"windgusts_10m_max"`
		Pres     []*float64 `json:"pressure_msl_mean"`
		Sunshine []*float64 `json:"sunshine_duration"`
	} `json:"daily"`
}

const dateLayout = "2006-01-02"

// Fetch returns one observation per day in [start, end] for the airport.
func (c *ArchiveClient) Fetch(ctx context.Context, airport Airport, start, end time.Time) ([]features.WeatherObs, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", airport.Lat))
		values.Set("longitude", fmt.Sprintf("%f", airport.Lon))
		values.Set("start_date", start.Format(dateLayout))
		values.Set("end_date", end.Format(dateLayout))
		values.Set("timezone", "UTC")
		for _, f := range dailyFields {
			values.Add("daily", f)
		}
		return http.NewRequest(http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	}

	resp, err := c.caller.Do(ctx, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("fetch archive for %s: %w", airport.IATA, err)
	}
	defer resp.Body.Close()

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode archive response for %s: %w", airport.IATA, err)
	}

	daily := payload.Daily
	obs := make([]features.WeatherObs, 0, len(daily.Time))
	for i, day := range daily.Time {
		date, err := time.Parse(dateLayout, day)
		if err != nil {
			continue
		}
		obs = append(obs, features.WeatherObs{
			Airport: airport.IATA,
			Date:    date,
			Tavg:    at(daily.Tavg, i),
			Tmin:    at(daily.Tmin, i),
			Tmax:    at(daily.Tmax, i),
			Prcp:    at(daily.Prcp, i),
			Snow:    scale(at(daily.Snowfall, i), 10), // cm to mm
			Wdir:    at(daily.Wdir, i),
			Wspd:    at(daily.Wspd, i),
			Wpgt:    at(daily.Wpgt, i),
			Pres:    at(daily.Pres, i),
			Tsun:    scale(at(daily.Sunshine, i), 1.0/60), // seconds to minutes
		})
	}
	return obs, nil
}

// Backfill fetches the range for every airport, logging and skipping airports
// that fail so one bad upstream response cannot sink a long run.
func (c *ArchiveClient) Backfill(ctx context.Context, airports []Airport, start, end time.Time) []features.WeatherObs {
	var all []features.WeatherObs
	for _, a := range airports {
		obs, err := c.Fetch(ctx, a, start, end)
		if err != nil {
			log.Printf("fetch: %v", err)
			continue
		}
		all = append(all, obs...)
	}
	return all
}

func at(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func scale(v *float64, factor float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * factor
	return &scaled
}
