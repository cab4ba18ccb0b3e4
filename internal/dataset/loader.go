// Package dataset reads and writes the historical flights and weather tables
// used by the training pipeline. Both tables are header-first CSV files; a
// missing required column is fatal, malformed individual rows are skipped.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"flight-delay-prediction/internal/features"
)

var flightColumns = []string{"FL_DATE", "AIRLINE", "ORIGIN", "DEST", "CRS_DEP_TIME", "ARR_DELAY"}

var weatherColumns = []string{
	"time", "airport",
	"tavg", "tmin", "tmax", "prcp", "snow",
	"wdir", "wspd", "wpgt", "pres", "tsun",
}

// LoadFlights reads the historical flights table.
func LoadFlights(path string) ([]features.Flight, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flights file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	idx, err := headerIndex(r, "flights", flightColumns)
	if err != nil {
		return nil, err
	}

	var flights []features.Flight
	skipped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read flights file: %w", err)
		}

		date, ok := parseDate(record[idx["FL_DATE"]])
		if !ok {
			// Mirrors dropping rows without a usable flight date.
			skipped++
			continue
		}

		flights = append(flights, features.Flight{
			Date:       date,
			Airline:    record[idx["AIRLINE"]],
			Origin:     record[idx["ORIGIN"]],
			Dest:       record[idx["DEST"]],
			CRSDepTime: parseHHMM(record[idx["CRS_DEP_TIME"]]),
			ArrDelay:   parseOptionalFloat(record[idx["ARR_DELAY"]]),
		})
	}

	if skipped > 0 {
		log.Printf("dataset: skipped %d flight rows without a parseable date", skipped)
	}
	return flights, nil
}

// LoadWeather reads the per-airport daily weather observations table.
func LoadWeather(path string) ([]features.WeatherObs, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	idx, err := headerIndex(r, "weather", weatherColumns)
	if err != nil {
		return nil, err
	}

	var obs []features.WeatherObs
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read weather file: %w", err)
		}

		date, ok := parseDate(record[idx["time"]])
		if !ok {
			continue
		}

		obs = append(obs, features.WeatherObs{
			Airport: record[idx["airport"]],
			Date:    date,
			Tavg:    parseOptionalFloat(record[idx["tavg"]]),
			Tmin:    parseOptionalFloat(record[idx["tmin"]]),
			Tmax:    parseOptionalFloat(record[idx["tmax"]]),
			Prcp:    parseOptionalFloat(record[idx["prcp"]]),
			Snow:    parseOptionalFloat(record[idx["snow"]]),
			Wdir:    parseOptionalFloat(record[idx["wdir"]]),
			Wspd:    parseOptionalFloat(record[idx["wspd"]]),
			Wpgt:    parseOptionalFloat(record[idx["wpgt"]]),
			Pres:    parseOptionalFloat(record[idx["pres"]]),
			Tsun:    parseOptionalFloat(record[idx["tsun"]]),
		})
	}
	return obs, nil
}

// WriteWeather writes observations in the layout LoadWeather reads back.
// Missing measurements serialize as empty cells.
func WriteWeather(path string, obs []features.WeatherObs) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weather file: %w", err)
	}
	defer f.Close()

	return writeWeatherRecords(f, obs, true)
}

// AppendWeather adds observations to an existing weather file, creating it
// with a header when absent.
func AppendWeather(path string, obs []features.WeatherObs) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open weather file for append: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	return writeWeatherRecords(f, obs, info.Size() == 0)
}

func writeWeatherRecords(f *os.File, obs []features.WeatherObs, withHeader bool) error {
	w := csv.NewWriter(f)
	if withHeader {
		if err := w.Write(weatherColumns); err != nil {
			return err
		}
	}

	for _, o := range obs {
		record := []string{
			o.Date.Format("2006-01-02"),
			o.Airport,
			formatOptionalFloat(o.Tavg),
			formatOptionalFloat(o.Tmin),
			formatOptionalFloat(o.Tmax),
			formatOptionalFloat(o.Prcp),
			formatOptionalFloat(o.Snow),
			formatOptionalFloat(o.Wdir),
			formatOptionalFloat(o.Wspd),
			formatOptionalFloat(o.Wpgt),
			formatOptionalFloat(o.Pres),
			formatOptionalFloat(o.Tsun),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func headerIndex(r *csv.Reader, table string, required []string) (map[string]int, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s file has no header row", features.ErrValidation, table)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("%w: %s file is missing column %q", features.ErrValidation, table, name)
		}
	}
	return idx, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseHHMM reads a scheduled departure time that may be serialized as an
// integer or a float ("900", "900.0").
func parseHHMM(s string) int {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return int(v)
	}
	return 0
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptionalFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
