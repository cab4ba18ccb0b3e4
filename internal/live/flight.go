package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrFlightNotFound is returned when no attempt against the flight-status
// provider yields a usable record. It is recoverable at the request level.
var ErrFlightNotFound = errors.New("flight not found or failed to retrieve flight data")

const defaultDepHour = 12

// FlightDetails is the serving-time view of one scheduled flight.
type FlightDetails struct {
	AirlineCode string
	OriginCode  string
	DestCode    string
	DepHour     int
}

// FlightClient looks flights up on the aviationstack API.
type FlightClient struct {
	apiKey  string
	baseURL string
	caller  *Caller
}

// NewFlightClient builds a FlightClient. The free plan only supports plain
// HTTP and ignores date filters, so lookups are by flight designator alone.
func NewFlightClient(client *http.Client, apiKey string) *FlightClient {
	return &FlightClient{
		apiKey:  apiKey,
		baseURL: "http://api.aviationstack.com/v1/flights",
		caller:  NewCaller(client, "aviationstack", 0),
	}
}

type flightPayload struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Departure struct {
			IATA      string `json:"iata"`
			Scheduled string `json:"scheduled"`
			Estimated string `json:"estimated"`
			Actual    string `json:"actual"`
		} `json:"departure"`
		Arrival struct {
			IATA string `json:"iata"`
		} `json:"arrival"`
		Airline struct {
			IATA string `json:"iata"`
		} `json:"airline"`
	} `json:"data"`
}

// Lookup resolves a flight number to flight details. It first queries the
// exact designator; if the number decomposes into a 2-letter airline prefix
// plus a numeric suffix it retries with that decomposition. When every
// attempt comes back empty it returns ErrFlightNotFound.
func (c *FlightClient) Lookup(ctx context.Context, flightNumber string) (FlightDetails, error) {
	attempts := []url.Values{{
		"flight_iata": {flightNumber},
		"limit":       {"1"},
	}}
	if prefix, suffix, ok := DecomposeFlightNumber(flightNumber); ok {
		attempts = append(attempts, url.Values{
			"airline_iata":  {prefix},
			"flight_number": {suffix},
			"limit":         {"1"},
		})
	}

	for _, params := range attempts {
		payload, err := c.query(ctx, params)
		if err != nil {
			log.Printf("live: aviationstack request failed for %v: %v", params, err)
			continue
		}
		if payload.Error != nil {
			log.Printf("live: aviationstack error %s for %v: %s",
				payload.Error.Code, params, payload.Error.Message)
			continue
		}
		if len(payload.Data) == 0 {
			log.Printf("live: no flight data for %v", params)
			continue
		}

		fl := payload.Data[0]
		details := FlightDetails{
			AirlineCode: fl.Airline.IATA,
			OriginCode:  fl.Departure.IATA,
			DestCode:    fl.Arrival.IATA,
			DepHour:     scheduledHour(fl.Departure.Scheduled, fl.Departure.Estimated, fl.Departure.Actual),
		}
		if details.AirlineCode == "" {
			details.AirlineCode = strings.ToUpper(flightNumber[:min(2, len(flightNumber))])
		}
		if details.OriginCode == "" {
			details.OriginCode = "SFO"
		}
		if details.DestCode == "" {
			details.DestCode = "LAX"
		}
		return details, nil
	}

	return FlightDetails{}, ErrFlightNotFound
}

func (c *FlightClient) query(ctx context.Context, params url.Values) (*flightPayload, error) {
	resp, err := c.caller.Do(ctx, func() (*http.Request, error) {
		values := url.Values{"access_key": {c.apiKey}}
		for k, vs := range params {
			values[k] = vs
		}
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload flightPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecomposeFlightNumber splits a designator like "UA245" into its airline
// prefix and numeric suffix.
func DecomposeFlightNumber(flightNumber string) (prefix, suffix string, ok bool) {
	if len(flightNumber) < 3 {
		return "", "", false
	}
	prefix, suffix = flightNumber[:2], flightNumber[2:]
	if !isAlpha(prefix) {
		return "", "", false
	}
	if _, err := strconv.Atoi(suffix); err != nil {
		return "", "", false
	}
	return strings.ToUpper(prefix), suffix, true
}

// scheduledHour extracts the departure hour from the first usable timestamp,
// defaulting to noon when none parses.
func scheduledHour(timestamps ...string) int {
	for _, ts := range timestamps {
		if ts == "" {
			continue
		}
		parts := strings.SplitN(ts, "T", 2)
		if len(parts) != 2 || len(parts[1]) < 2 {
			continue
		}
		if hour, err := strconv.Atoi(parts[1][:2]); err == nil && hour >= 0 && hour < 24 {
			return hour
		}
	}
	return defaultDepHour
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return false
		}
	}
	return len(s) > 0
}
