// Package metrics exposes the serving-path Prometheus instruments and the
// standalone metrics listener.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PredictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_predictions_total",
		Help: "Total number of successful predictions served.",
	})
	PredictionErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_prediction_errors_total",
		Help: "Total number of prediction requests that returned an error.",
	})
	WeatherFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightdelay_weather_fallbacks_total",
		Help: "Total number of weather lookups degraded to neutral defaults.",
	})
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "flightdelay_predict_request_duration_seconds",
		Help:    "Duration of prediction requests.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
	})
)

// Serve runs the metrics and liveness listener. It blocks, so callers run it
// in a goroutine.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("metrics server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("metrics server stopped: %v", err)
	}
}
