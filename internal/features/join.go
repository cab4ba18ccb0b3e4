package features

import "time"

// Flight is a single historical flight record.
type Flight struct {
	Date       time.Time
	Airline    string
	Origin     string
	Dest       string
	CRSDepTime int // scheduled departure as HHMM
	ArrDelay   *float64
}

// WeatherObs is one point-in-time weather observation for an airport.
// Fields are pointers because historical station data is full of gaps;
// a nil field means the station reported nothing, not zero.
type WeatherObs struct {
	Airport string
	Date    time.Time

	Tavg, Tmin, Tmax *float64
	Prcp, Snow       *float64
	Wdir, Wspd, Wpgt *float64
	Pres, Tsun       *float64
}

// WeatherSide is the observation set attached to one side of a flight
// (origin or destination) by the join.
type WeatherSide struct {
	Tavg, Tmin, Tmax *float64
	Prcp, Snow       *float64
	Wdir, Wspd, Wpgt *float64
	Pres, Tsun       *float64
}

// JoinedFlight is a flight record with both weather observation sets attached.
type JoinedFlight struct {
	Flight
	OriginWx WeatherSide
	DestWx   WeatherSide
}

// Join attaches weather observations to flights by (date, airport), once for
// the origin and once, independently, for the destination. The output always
// has exactly one row per input flight: the weather table is keyed by
// (airport, date) with the first observation winning, so the lookup can
// neither drop nor duplicate flights. Flights without a matching observation
// keep nil fields on the corresponding side.
func Join(flights []Flight, weather []WeatherObs) []JoinedFlight {
	byKey := make(map[string]WeatherObs, len(weather))
	for _, obs := range weather {
		k := weatherKey(obs.Airport, obs.Date)
		if _, ok := byKey[k]; !ok {
			byKey[k] = obs
		}
	}

	joined := make([]JoinedFlight, 0, len(flights))
	for _, fl := range flights {
		row := JoinedFlight{Flight: fl}
		if obs, ok := byKey[weatherKey(fl.Origin, fl.Date)]; ok {
			row.OriginWx = sideFromObs(obs)
		}
		if obs, ok := byKey[weatherKey(fl.Dest, fl.Date)]; ok {
			row.DestWx = sideFromObs(obs)
		}
		joined = append(joined, row)
	}
	return joined
}

func weatherKey(airport string, date time.Time) string {
	return airport + "|" + date.Format("2006-01-02")
}

func sideFromObs(obs WeatherObs) WeatherSide {
	return WeatherSide{
		Tavg: obs.Tavg, Tmin: obs.Tmin, Tmax: obs.Tmax,
		Prcp: obs.Prcp, Snow: obs.Snow,
		Wdir: obs.Wdir, Wspd: obs.Wspd, Wpgt: obs.Wpgt,
		Pres: obs.Pres, Tsun: obs.Tsun,
	}
}

// columns gives the derivation layer uniform access to a side's numeric
// fields, keyed by the source column name.
func (w *WeatherSide) columns() map[string]**float64 {
	return map[string]**float64{
		"tavg": &w.Tavg, "tmin": &w.Tmin, "tmax": &w.Tmax,
		"prcp": &w.Prcp, "snow": &w.Snow,
		"wdir": &w.Wdir, "wspd": &w.Wspd, "wpgt": &w.Wpgt,
		"pres": &w.Pres, "tsun": &w.Tsun,
	}
}
