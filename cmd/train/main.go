// Command train fits the delay model from the historical flights and weather
// tables and writes the serving bundle.
package main

import (
	"flag"
	"log"
	"time"

	"flight-delay-prediction/internal/dataset"
	"flight-delay-prediction/internal/features"
	"flight-delay-prediction/internal/model"
)

func main() {
	var (
		flightsPath = flag.String("flights", "data/flights.csv", "historical flights CSV")
		weatherPath = flag.String("weather", "data/weather.csv", "per-airport daily weather CSV")
		outPath     = flag.String("out", "models/flight_delay_bundle.json", "bundle output path")
		version     = flag.String("version", "", "bundle version string (default: today's date)")
		rounds      = flag.Int("rounds", 200, "boosting rounds")
		cutoff      = flag.String("cutoff", "2022-01-01", "flights on or after this date form the hold-out set")
	)
	flag.Parse()

	cutoffDate, err := time.Parse("2006-01-02", *cutoff)
	if err != nil {
		log.Fatalf("invalid -cutoff: %v", err)
	}
	if *version == "" {
		*version = time.Now().UTC().Format("2006-01-02")
	}

	flights, err := dataset.LoadFlights(*flightsPath)
	if err != nil {
		log.Fatalf("load flights: %v", err)
	}
	weather, err := dataset.LoadWeather(*weatherPath)
	if err != nil {
		log.Fatalf("load weather: %v", err)
	}
	log.Printf("train: %d flights, %d weather observations", len(flights), len(weather))

	joined := features.Join(flights, weather)
	rows, labels, err := features.Derive(joined)
	if err != nil {
		log.Fatalf("derive features: %v", err)
	}

	// The bundle encodes airline and airport identities as one-hot IATA
	// strings, so replace the training-only integer category codes before
	// fitting.
	for i, row := range rows {
		row.Set(features.FeatAirlineCode, features.Code(joined[i].Airline))
		row.Set(features.FeatOriginCode, features.Code(joined[i].Origin))
		row.Set(features.FeatDestCode, features.Code(joined[i].Dest))
	}

	var trainRows, holdRows []*features.Row
	var trainLabels, holdLabels []int
	for i := range rows {
		if joined[i].Date.Before(cutoffDate) {
			trainRows = append(trainRows, rows[i])
			trainLabels = append(trainLabels, labels[i])
		} else {
			holdRows = append(holdRows, rows[i])
			holdLabels = append(holdLabels, labels[i])
		}
	}
	if len(trainRows) == 0 {
		log.Fatalf("no flights before cutoff %s", *cutoff)
	}
	log.Printf("train: %d training rows, %d hold-out rows", len(trainRows), len(holdRows))

	categorical := []string{
		features.FeatAirlineCode,
		features.FeatOriginCode,
		features.FeatDestCode,
	}
	bundle, err := model.Fit(trainRows, trainLabels, features.ServingFeatureNames(), categorical, model.TrainOptions{
		Rounds:  *rounds,
		Version: *version,
	})
	if err != nil {
		log.Fatalf("fit model: %v", err)
	}

	if len(holdRows) > 0 {
		auc, err := model.EvalAUC(bundle, holdRows, holdLabels)
		if err != nil {
			log.Fatalf("evaluate model: %v", err)
		}
		log.Printf("train: hold-out AUC %.4f over %d rows", auc, len(holdRows))
	} else {
		log.Printf("train: no hold-out rows after cutoff %s, skipping evaluation", *cutoff)
	}

	if err := bundle.Save(*outPath); err != nil {
		log.Fatalf("save bundle: %v", err)
	}
	log.Printf("train: wrote bundle %s (%d trees) to %s", *version, len(bundle.Trees), *outPath)
}
