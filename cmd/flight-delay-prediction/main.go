package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	httpapi "flight-delay-prediction/internal/api/http"
	"flight-delay-prediction/internal/config"
	"flight-delay-prediction/internal/live"
	"flight-delay-prediction/internal/metrics"
	"flight-delay-prediction/internal/predict"
	"flight-delay-prediction/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Weather cache: redis when configured, in-process otherwise.
	var cache store.Cache
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		cache = store.NewRedisCache(redis.NewClient(opt))
	} else {
		cache = store.NewMemoryCache(cfg.CacheMaxEntries)
	}

	flights := live.NewFlightClient(httpClient, cfg.AviationstackAPIKey)
	weather := live.NewWeatherClient(httpClient, cfg.WeatherstackAPIKey)

	assembler := live.NewAssembler(flights, weather, live.Options{
		Simulate:      cfg.Simulate,
		AllowFallback: cfg.AllowFallback,
		Cache:         cache,
		CacheTTL:      cfg.WeatherCacheTTL,
	})

	predictor := predict.New(assembler, predict.FileLoader(cfg.ModelArtifactPath))

	// Prometheus endpoint on its own listener.
	go metrics.Serve(cfg.MetricsAddr)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "flight-delay-prediction",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "flight-delay-prediction",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, predictor)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
