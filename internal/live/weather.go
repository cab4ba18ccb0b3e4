package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"flight-delay-prediction/internal/features"
)

// WeatherFeatures is the serving-time weather view for one airport. TempDiff
// is the deviation of the current temperature from a fixed baseline, not a
// raw temperature.
type WeatherFeatures struct {
	TempDiff  float64 `json:"temp_diff"`
	Precip    float64 `json:"precip"`
	Snow      int     `json:"snow"`
	HeavyWind int     `json:"heavy_wind"`
}

// DefaultWeather is the neutral fallback used whenever the weather provider
// is unavailable or returns something unusable.
func DefaultWeather() WeatherFeatures {
	return WeatherFeatures{}
}

// WeatherClient fetches current conditions from the weatherstack API. The
// free plan has no historical endpoint, so the flight date is ignored and
// features are built from current weather.
type WeatherClient struct {
	apiKey  string
	baseURL string
	caller  *Caller
}

func NewWeatherClient(client *http.Client, apiKey string) *WeatherClient {
	return &WeatherClient{
		apiKey:  apiKey,
		baseURL: "http://api.weatherstack.com/current",
		caller:  NewCaller(client, "weatherstack", 1),
	}
}

// Current fetches weather features for a free-text location query (an airport
// IATA code works). Callers are expected to substitute DefaultWeather on
// error; weather is best-effort by design.
func (c *WeatherClient) Current(ctx context.Context, query string) (WeatherFeatures, error) {
	resp, err := c.caller.Do(ctx, func() (*http.Request, error) {
		values := url.Values{
			"access_key": {c.apiKey},
			"query":      {query},
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	})
	if err != nil {
		return DefaultWeather(), err
	}
	defer resp.Body.Close()

	var payload struct {
		Success *bool `json:"success"`
		Error   *struct {
			Code int    `json:"code"`
			Info string `json:"info"`
		} `json:"error"`
		Current struct {
			Temperature         *float64 `json:"temperature"`
			Precip              *float64 `json:"precip"`
			WindSpeed           *float64 `json:"wind_speed"`
			WeatherDescriptions []string `json:"weather_descriptions"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return DefaultWeather(), err
	}
	// weatherstack reports failures with a 200 status and an error body.
	if payload.Success != nil && !*payload.Success {
		info := "unknown error"
		if payload.Error != nil {
			info = payload.Error.Info
		}
		return DefaultWeather(), fmt.Errorf("weatherstack error: %s", info)
	}

	cur := payload.Current

	temperature := features.LiveTempBaseline
	if cur.Temperature != nil {
		temperature = *cur.Temperature
	}
	tempDiff := temperature - features.LiveTempBaseline
	if tempDiff < 0 {
		tempDiff = -tempDiff
	}

	var precip float64
	if cur.Precip != nil {
		precip = *cur.Precip
	}

	snow := 0
	if strings.Contains(strings.ToLower(strings.Join(cur.WeatherDescriptions, " ")), "snow") {
		snow = 1
	}

	heavyWind := 0
	if cur.WindSpeed != nil && *cur.WindSpeed > features.HeavyWindLiveThreshold {
		heavyWind = 1
	}

	return WeatherFeatures{
		TempDiff:  tempDiff,
		Precip:    precip,
		Snow:      snow,
		HeavyWind: heavyWind,
	}, nil
}
