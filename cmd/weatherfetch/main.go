// Command weatherfetch builds and maintains the per-airport daily weather
// table. A one-shot run backfills a date range; with -daily it keeps running
// and appends the previous day's observations every morning.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"flight-delay-prediction/internal/dataset"
	"flight-delay-prediction/internal/fetch"
	"flight-delay-prediction/internal/scheduler"
)

func main() {
	var (
		airportsPath = flag.String("airports", "data/airports.csv", "airport reference CSV")
		iataFilter   = flag.String("iata", "", "comma-separated IATA codes to fetch (default: all)")
		outPath      = flag.String("out", "data/weather.csv", "weather table output path")
		startStr     = flag.String("start", "2019-01-01", "backfill range start")
		endStr       = flag.String("end", "", "backfill range end (default: yesterday)")
		daily        = flag.Bool("daily", false, "keep running and append yesterday's data every day")
		dailyAt      = flag.String("at", "02:00", "daily refresh time, HH:MM UTC")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	end := yesterday()
	if *endStr != "" {
		end, err = time.Parse("2006-01-02", *endStr)
		if err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
	}

	airports, err := fetch.LoadAirports(*airportsPath)
	if err != nil {
		log.Fatalf("load airports: %v", err)
	}
	airports = filterAirports(airports, *iataFilter)
	if len(airports) == 0 {
		log.Fatal("no airports to fetch")
	}
	log.Printf("weatherfetch: %d airports, %s through %s",
		len(airports), start.Format("2006-01-02"), end.Format("2006-01-02"))

	client := fetch.NewArchiveClient(&http.Client{Timeout: 30 * time.Second})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs := client.Backfill(ctx, airports, start, end)
	if err := dataset.WriteWeather(*outPath, obs); err != nil {
		log.Fatalf("write weather table: %v", err)
	}
	log.Printf("weatherfetch: wrote %d observations to %s", len(obs), *outPath)

	if !*daily {
		return
	}

	sched := scheduler.New(*dailyAt, func(ctx context.Context) error {
		day := yesterday()
		obs := client.Backfill(ctx, airports, day, day)
		if err := dataset.AppendWeather(*outPath, obs); err != nil {
			return err
		}
		log.Printf("weatherfetch: appended %d observations for %s", len(obs), day.Format("2006-01-02"))
		return nil
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer sched.Stop()

	<-ctx.Done()
}

func yesterday() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func filterAirports(airports []fetch.Airport, filter string) []fetch.Airport {
	if filter == "" {
		return airports
	}
	wanted := make(map[string]bool)
	for _, code := range strings.Split(filter, ",") {
		wanted[strings.ToUpper(strings.TrimSpace(code))] = true
	}
	var out []fetch.Airport
	for _, a := range airports {
		if wanted[a.IATA] {
			out = append(out, a)
		}
	}
	return out
}
