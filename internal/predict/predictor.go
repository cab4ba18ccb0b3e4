// Package predict drives a prediction request end to end: live feature
// assembly, reindexing to the bundle's canonical feature order, and scoring.
package predict

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"flight-delay-prediction/internal/features"
	"flight-delay-prediction/internal/model"
)

// Model is the scoreable side of a trained bundle.
type Model interface {
	PredictProba(row *features.Row) (float64, error)
	FeatureNames() []string
	ModelVersion() string
}

// Assembler produces the serving-time feature row for a flight.
type Assembler interface {
	Assemble(ctx context.Context, flightNumber string, date time.Time) (*features.Row, error)
}

// Result is the successful prediction response.
type Result struct {
	DelayedProbability float64 `json:"delayed_probability"`
	DelayedLabel       int     `json:"delayed_label"`
	ModelVersion       string  `json:"model_version"`
}

const decisionThreshold = 0.5

// Predictor owns the process-scoped model state. The bundle is loaded lazily
// on the first prediction and never reloaded; the load-once transition is
// race-free under concurrent first requests.
type Predictor struct {
	assembler Assembler
	load      func() (Model, error)

	once    sync.Once
	model   Model
	loadErr error
}

// New creates a Predictor that obtains its model from load on first use.
func New(assembler Assembler, load func() (Model, error)) *Predictor {
	return &Predictor{assembler: assembler, load: load}
}

// FileLoader returns a load function reading a bundle from path.
func FileLoader(path string) func() (Model, error) {
	return func() (Model, error) {
		b, err := model.Load(path)
		if err != nil {
			return nil, err
		}
		log.Printf("predict: loaded model bundle %s (%d features)", b.ModelVersion(), len(b.FeatureOrder))
		return b, nil
	}
}

// Predict assembles the feature row for a flight and scores it. Assembly
// errors come back unchanged with no model invocation; scoring failures are
// caught at this boundary so a bad artifact cannot crash the process.
func (p *Predictor) Predict(ctx context.Context, flightNumber string, date time.Time) (Result, error) {
	p.once.Do(func() {
		p.model, p.loadErr = p.load()
	})
	if p.loadErr != nil {
		return Result{}, fmt.Errorf("model bundle unavailable: %w", p.loadErr)
	}

	row, err := p.assembler.Assemble(ctx, flightNumber, date)
	if err != nil {
		return Result{}, err
	}

	// Reindex strictly to the bundle's canonical order. Features the
	// assembler could not produce pass through as missing; imputation is the
	// pipeline's job, the orchestrator never invents values.
	ordered := features.NewRow()
	for _, name := range p.model.FeatureNames() {
		ordered.Set(name, row.Get(name))
	}

	proba, err := p.score(ordered)
	if err != nil {
		return Result{}, fmt.Errorf("prediction failed: %w", err)
	}

	label := 0
	if proba >= decisionThreshold {
		label = 1
	}
	return Result{
		DelayedProbability: proba,
		DelayedLabel:       label,
		ModelVersion:       p.model.ModelVersion(),
	}, nil
}

func (p *Predictor) score(row *features.Row) (proba float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model scoring panicked: %v", r)
		}
	}()
	return p.model.PredictProba(row)
}
