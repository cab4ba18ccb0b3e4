package features

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrValidation marks fatal problems with the raw training data. The training
// run is expected to abort on it rather than persist a model built from a
// partial table.
var ErrValidation = errors.New("data validation")

// Derive computes the full training-time feature surface from joined
// flight-weather rows. It returns one Row per input flight, aligned with the
// input order, plus the binary delay labels.
//
// Missing numeric weather fields are filled in place with the column median
// computed over the whole table, before any flag is derived; a column with no
// observations at all stays missing.
func Derive(flights []JoinedFlight) ([]*Row, []int, error) {
	if len(flights) == 0 {
		return nil, nil, fmt.Errorf("%w: no flight rows to derive features from", ErrValidation)
	}
	for i := range flights {
		fl := &flights[i].Flight
		if fl.Date.IsZero() || fl.Origin == "" || fl.Dest == "" || fl.Airline == "" {
			return nil, nil, fmt.Errorf(
				"%w: flight row %d is missing date, origin, destination or airline", ErrValidation, i)
		}
	}

	imputeWeather(flights)

	depTraffic, arrTraffic := airportTraffic(flights)
	routeCounts := routePopularity(flights)
	airlineCodes := categoryCodes(flights, func(f *JoinedFlight) string { return f.Airline })
	originCodes := categoryCodes(flights, func(f *JoinedFlight) string { return f.Origin })
	destCodes := categoryCodes(flights, func(f *JoinedFlight) string { return f.Dest })
	holidays := holidayCalendar()

	rows := make([]*Row, 0, len(flights))
	labels := make([]int, 0, len(flights))

	for i := range flights {
		fl := &flights[i]
		row := NewRow()

		depHour := fl.CRSDepTime / 100
		dayOfWeek := int(fl.Date.Weekday()+6) % 7 // 0 = Monday

		// Categorical identity codes: string IATA codes for the serving
		// contract, plus the training-only integer category codes.
		row.Set(FeatAirlineCode, Int(airlineCodes[fl.Airline]))
		row.Set(FeatOriginCode, Int(originCodes[fl.Origin]))
		row.Set(FeatDestCode, Int(destCodes[fl.Dest]))

		row.Set(FeatDepHour, Int(depHour))
		row.Set(FeatDayOfWeek, Int(dayOfWeek))
		row.Set(FeatMonth, Int(int(fl.Date.Month())))
		row.Set(FeatIsWeekend, boolFlag(dayOfWeek == 5 || dayOfWeek == 6))

		morning, afternoon, evening, night := TimeOfDayFlags(depHour)
		row.Set(FeatIsMorning, Int(morning))
		row.Set(FeatIsAfternoon, Int(afternoon))
		row.Set(FeatIsEvening, Int(evening))
		row.Set(FeatIsNight, Int(night))

		row.Set(FeatDepAirportTraffic, Int(depTraffic[groupKey(fl.Date, fl.Origin)]))
		row.Set(FeatArrAirportTraffic, Int(arrTraffic[groupKey(fl.Date, fl.Dest)]))
		row.Set(FeatRoutePopularity, Int(routeCounts[fl.Origin+"-"+fl.Dest]))
		row.Set(FeatHolidayFlag, boolFlag(holidays.isHoliday(fl.Date)))

		row.Set(FeatOriginHeavyWind, thresholdFlag(fl.OriginWx.Wspd, HeavyWindTrainingThreshold))
		row.Set(FeatOriginPrecip, thresholdFlag(fl.OriginWx.Prcp, PrecipThreshold))
		row.Set(FeatOriginSnow, thresholdFlag(fl.OriginWx.Snow, 0))
		row.Set(FeatDestHeavyWind, thresholdFlag(fl.DestWx.Wspd, HeavyWindTrainingThreshold))
		row.Set(FeatDestPrecip, thresholdFlag(fl.DestWx.Prcp, PrecipThreshold))
		row.Set(FeatDestSnow, thresholdFlag(fl.DestWx.Snow, 0))
		row.Set(FeatTempDiff, absDiff(fl.OriginWx.Tavg, fl.DestWx.Tavg))

		for col, field := range fl.OriginWx.columns() {
			row.Set("ORIGIN_"+col, optional(*field))
		}
		for col, field := range fl.DestWx.columns() {
			row.Set("DEST_"+col, optional(*field))
		}

		rows = append(rows, row)
		labels = append(labels, delayLabel(fl.ArrDelay))
	}

	return rows, labels, nil
}

// TimeOfDayFlags buckets a departure hour into four mutually exclusive flags:
// morning [5,12), afternoon [12,17), evening [17,21), night otherwise.
func TimeOfDayFlags(depHour int) (morning, afternoon, evening, night int) {
	switch {
	case depHour >= 5 && depHour < 12:
		morning = 1
	case depHour >= 12 && depHour < 17:
		afternoon = 1
	case depHour >= 17 && depHour < 21:
		evening = 1
	default:
		night = 1
	}
	return
}

func delayLabel(arrDelay *float64) int {
	if arrDelay != nil && *arrDelay > DelayThresholdMinutes {
		return 1
	}
	return 0
}

// imputeWeather fills missing values on every numeric weather column with the
// column median over the full table.
func imputeWeather(flights []JoinedFlight) {
	for _, col := range weatherColumns {
		fillColumnMedian(flights, col, func(f *JoinedFlight) **float64 { return f.OriginWx.columns()[col] })
		fillColumnMedian(flights, col, func(f *JoinedFlight) **float64 { return f.DestWx.columns()[col] })
	}
}

func fillColumnMedian(flights []JoinedFlight, col string, field func(*JoinedFlight) **float64) {
	var present []float64
	for i := range flights {
		if v := *field(&flights[i]); v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return
	}
	sort.Float64s(present)
	median := stat.Quantile(0.5, stat.LinInterp, present, nil)

	for i := range flights {
		slot := field(&flights[i])
		if *slot == nil {
			m := median
			*slot = &m
		}
	}
}

func airportTraffic(flights []JoinedFlight) (dep, arr map[string]int) {
	dep = make(map[string]int)
	arr = make(map[string]int)
	for i := range flights {
		dep[groupKey(flights[i].Date, flights[i].Origin)]++
		arr[groupKey(flights[i].Date, flights[i].Dest)]++
	}
	return dep, arr
}

func routePopularity(flights []JoinedFlight) map[string]int {
	counts := make(map[string]int)
	for i := range flights {
		counts[flights[i].Origin+"-"+flights[i].Dest]++
	}
	return counts
}

// categoryCodes assigns each distinct code its index in sorted order.
func categoryCodes(flights []JoinedFlight, key func(*JoinedFlight) string) map[string]int {
	seen := make(map[string]struct{})
	for i := range flights {
		seen[key(&flights[i])] = struct{}{}
	}
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	codes := make(map[string]int, len(values))
	for i, v := range values {
		codes[v] = i
	}
	return codes
}

func groupKey(date time.Time, airport string) string {
	return date.Format("2006-01-02") + "|" + airport
}

func boolFlag(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func thresholdFlag(v *float64, threshold float64) Value {
	if v != nil && *v > threshold {
		return Int(1)
	}
	return Int(0)
}

func absDiff(a, b *float64) Value {
	if a == nil || b == nil {
		return None
	}
	d := *a - *b
	if d < 0 {
		d = -d
	}
	return Number(d)
}

func optional(v *float64) Value {
	if v == nil {
		return None
	}
	return Number(*v)
}
