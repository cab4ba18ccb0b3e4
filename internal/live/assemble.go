package live

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"flight-delay-prediction/internal/features"
	"flight-delay-prediction/internal/metrics"
	"flight-delay-prediction/internal/store"
)

// FlightLookup resolves a flight number to flight details.
type FlightLookup interface {
	Lookup(ctx context.Context, flightNumber string) (FlightDetails, error)
}

// WeatherLookup fetches current weather features for a location query.
type WeatherLookup interface {
	Current(ctx context.Context, query string) (WeatherFeatures, error)
}

// Options are the explicit switches for the assembly layer, constructed once
// at process start from configuration.
type Options struct {
	// Simulate bypasses all external calls and returns fixed synthetic data.
	Simulate bool
	// AllowFallback substitutes a dummy flight record when every lookup
	// attempt fails; without it a failed lookup halts assembly.
	AllowFallback bool

	// Cache, when set, memoizes weather features per (airport, date).
	Cache    store.Cache
	CacheTTL time.Duration
}

// Assembler builds the serving-time feature row for a flight. Its output
// names are a strict subset of the training feature surface.
type Assembler struct {
	flights FlightLookup
	weather WeatherLookup
	opts    Options
}

func NewAssembler(flights FlightLookup, weather WeatherLookup, opts Options) *Assembler {
	return &Assembler{flights: flights, weather: weather, opts: opts}
}

// Assemble produces the feature row for one (flight number, date) pair. A
// flight that cannot be resolved yields ErrFlightNotFound and no row; weather
// problems degrade to neutral defaults and never fail assembly.
func (a *Assembler) Assemble(ctx context.Context, flightNumber string, date time.Time) (*features.Row, error) {
	flight, err := a.resolveFlight(ctx, flightNumber)
	if err != nil {
		return nil, err
	}

	var originWx, destWx WeatherFeatures
	if a.opts.Simulate {
		originWx = simulatedWeather()
		destWx = simulatedWeather()
	} else {
		originWx = a.lookupWeather(ctx, flight.OriginCode, date)
		destWx = a.lookupWeather(ctx, flight.DestCode, date)
	}

	row := features.NewRow()
	row.Set(features.FeatAirlineCode, features.Code(flight.AirlineCode))
	row.Set(features.FeatOriginCode, features.Code(flight.OriginCode))
	row.Set(features.FeatDestCode, features.Code(flight.DestCode))
	row.Set(features.FeatDepHour, features.Int(flight.DepHour))
	row.Set(features.FeatDayOfWeek, features.Int(int(date.Weekday()+6)%7))
	row.Set(features.FeatMonth, features.Int(int(date.Month())))

	morning, afternoon, evening, night := features.TimeOfDayFlags(flight.DepHour)
	row.Set(features.FeatIsMorning, features.Int(morning))
	row.Set(features.FeatIsAfternoon, features.Int(afternoon))
	row.Set(features.FeatIsEvening, features.Int(evening))
	row.Set(features.FeatIsNight, features.Int(night))

	row.Set(features.FeatOriginPrecip, features.Number(originWx.Precip))
	row.Set(features.FeatDestPrecip, features.Number(destWx.Precip))
	row.Set(features.FeatOriginSnow, features.Int(originWx.Snow))
	row.Set(features.FeatDestSnow, features.Int(destWx.Snow))
	row.Set(features.FeatOriginHeavyWind, features.Int(originWx.HeavyWind))
	row.Set(features.FeatDestHeavyWind, features.Int(destWx.HeavyWind))

	tempDiff := originWx.TempDiff - destWx.TempDiff
	if tempDiff < 0 {
		tempDiff = -tempDiff
	}
	row.Set(features.FeatTempDiff, features.Number(tempDiff))

	return row, nil
}

func (a *Assembler) resolveFlight(ctx context.Context, flightNumber string) (FlightDetails, error) {
	if a.opts.Simulate {
		return dummyFlight(flightNumber), nil
	}

	flight, err := a.flights.Lookup(ctx, flightNumber)
	if err == nil {
		return flight, nil
	}
	if a.opts.AllowFallback {
		log.Printf("live: substituting dummy flight for %s after lookup failure: %v", flightNumber, err)
		return dummyFlight(flightNumber), nil
	}
	return FlightDetails{}, err
}

// lookupWeather fetches weather features for one airport, consulting the
// cache first. Lookup failures degrade to neutral defaults; defaults are not
// cached so a later request gets another chance at real data.
func (a *Assembler) lookupWeather(ctx context.Context, airport string, date time.Time) WeatherFeatures {
	key := "wx:" + airport + ":" + date.Format("2006-01-02")

	if a.opts.Cache != nil {
		if raw, ok := a.opts.Cache.Get(ctx, key); ok {
			var wf WeatherFeatures
			if err := json.Unmarshal(raw, &wf); err == nil {
				return wf
			}
		}
	}

	wf, err := a.weather.Current(ctx, airport)
	if err != nil {
		log.Printf("WARN live: weather lookup failed for %s, using defaults: %v", airport, err)
		metrics.WeatherFallbacks.Inc()
		return DefaultWeather()
	}

	if a.opts.Cache != nil {
		if raw, err := json.Marshal(wf); err == nil {
			a.opts.Cache.Set(ctx, key, raw, a.opts.CacheTTL)
		}
	}
	return wf
}

// dummyFlight is the synthetic record used in simulate mode and as the
// explicit fallback: the airline from the designator prefix when it looks
// like one, a fixed SFO-LAX route, and a noon departure.
func dummyFlight(flightNumber string) FlightDetails {
	airline := "UA"
	if len(flightNumber) >= 2 && isAlpha(flightNumber[:2]) {
		airline = strings.ToUpper(flightNumber[:2])
	}
	return FlightDetails{
		AirlineCode: airline,
		OriginCode:  "SFO",
		DestCode:    "LAX",
		DepHour:     defaultDepHour,
	}
}

func simulatedWeather() WeatherFeatures {
	return WeatherFeatures{TempDiff: 2}
}
