package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"flight-delay-prediction/internal/live"
	"flight-delay-prediction/internal/metrics"
	"flight-delay-prediction/internal/predict"
)

var validate = validator.New()

const flightDateLayout = "2006-01-02"

// Predictor scores a single flight for a departure date.
type Predictor interface {
	Predict(ctx context.Context, flightNumber string, date time.Time) (predict.Result, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, predictor Predictor) {
	v1 := app.Group("/api/v1")

	v1.Post("/predict", func(c *fiber.Ctx) error {
		timer := time.Now()

		req, err := parsePredictRequest(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		date, _ := time.Parse(flightDateLayout, req.FlightDate)
		result, err := predictor.Predict(c.UserContext(), req.FlightNumber, date)
		if err != nil {
			metrics.PredictionErrors.Inc()
			if errors.Is(err, live.ErrFlightNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "flight not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "prediction failed")
		}

		metrics.PredictionsTotal.Inc()
		metrics.RequestDuration.Observe(time.Since(timer).Seconds())
		return c.JSON(result)
	})
}

// predictRequest is the body of POST /api/v1/predict.
type predictRequest struct {
	FlightNumber string `json:"flight_number" validate:"required"`
	FlightDate   string `json:"flight_date" validate:"required,datetime=2006-01-02"`
}

func parsePredictRequest(c *fiber.Ctx) (predictRequest, error) {
	var req predictRequest

	if err := c.BodyParser(&req); err != nil {
		return req, errors.New("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return req, err
	}

	return req, nil
}
