// Package fetch backfills the daily airport weather table from the Open-Meteo
// historical archive.
package fetch

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
)

// Airport is one row of the airport reference table.
type Airport struct {
	IATA string
	Lat  float64
	Lon  float64
}

var airportColumns = []string{"iata_code", "latitude_deg", "longitude_deg"}

// LoadAirports reads the airport reference CSV. Rows without an IATA code or
// with unparseable coordinates are skipped; duplicate codes keep the first
// occurrence.
func LoadAirports(path string) ([]Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airports file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("airports file has no header row")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range airportColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("airports file is missing column %q", name)
		}
	}

	seen := make(map[string]bool)
	var airports []Airport
	skipped := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airports file: %w", err)
		}

		code := record[idx["iata_code"]]
		if code == "" || seen[code] {
			continue
		}
		lat, latErr := strconv.ParseFloat(record[idx["latitude_deg"]], 64)
		lon, lonErr := strconv.ParseFloat(record[idx["longitude_deg"]], 64)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		seen[code] = true
		airports = append(airports, Airport{IATA: code, Lat: lat, Lon: lon})
	}

	if skipped > 0 {
		log.Printf("fetch: skipped %d airport rows with unparseable coordinates", skipped)
	}
	return airports, nil
}
