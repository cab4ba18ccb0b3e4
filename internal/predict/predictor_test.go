package predict

import (
	"context"
	"errors"
	"testing"
	"time"

	"flight-delay-prediction/internal/features"
	"flight-delay-prediction/internal/live"
	"flight-delay-prediction/internal/model"
)

type countingModel struct {
	inner Model
	calls int
}

func (m *countingModel) PredictProba(row *features.Row) (float64, error) {
	m.calls++
	return m.inner.PredictProba(row)
}
func (m *countingModel) FeatureNames() []string { return m.inner.FeatureNames() }
func (m *countingModel) ModelVersion() string   { return m.inner.ModelVersion() }

type failingAssembler struct{ err error }

func (a failingAssembler) Assemble(ctx context.Context, flightNumber string, date time.Time) (*features.Row, error) {
	return nil, a.err
}

// canonicalBundle mirrors the serving feature order the trainer emits.
func canonicalBundle() *model.Bundle {
	return &model.Bundle{
		Version:      "2025-06-01-gbt-bundle-v1",
		FeatureOrder: features.ServingFeatureNames(),
		Categorical: map[string][]string{
			features.FeatAirlineCode: {"AA", "UA"},
			features.FeatOriginCode:  {"LAX", "SFO"},
			features.FeatDestCode:    {"LAX", "SFO"},
		},
		Medians: map[string]float64{features.FeatDepHour: 12},
		Bias:    0.3,
	}
}

func simulateAssembler() Assembler {
	return live.NewAssembler(nil, nil, live.Options{Simulate: true})
}

func fixedLoader(m Model) func() (Model, error) {
	return func() (Model, error) { return m, nil }
}

func TestPredictEndToEndSimulate(t *testing.T) {
	cm := &countingModel{inner: canonicalBundle()}
	p := New(simulateAssembler(), fixedLoader(cm))

	date, _ := time.Parse("2006-01-02", "2024-03-10")
	res, err := p.Predict(context.Background(), "UA245", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.ModelVersion != "2025-06-01-gbt-bundle-v1" {
		t.Errorf("model version must be echoed verbatim, got %q", res.ModelVersion)
	}
	if res.DelayedProbability < 0 || res.DelayedProbability > 1 {
		t.Errorf("probability out of range: %v", res.DelayedProbability)
	}
	wantLabel := 0
	if res.DelayedProbability >= 0.5 {
		wantLabel = 1
	}
	if res.DelayedLabel != wantLabel {
		t.Errorf("label %d inconsistent with probability %v", res.DelayedLabel, res.DelayedProbability)
	}
	if cm.calls != 1 {
		t.Errorf("expected exactly one model invocation, got %d", cm.calls)
	}
}

func TestPredictFlightNotFoundSkipsModel(t *testing.T) {
	cm := &countingModel{inner: canonicalBundle()}
	p := New(failingAssembler{err: live.ErrFlightNotFound}, fixedLoader(cm))

	_, err := p.Predict(context.Background(), "UA245", time.Now())
	if !errors.Is(err, live.ErrFlightNotFound) {
		t.Fatalf("expected flight-not-found error, got %v", err)
	}
	if cm.calls != 0 {
		t.Errorf("model must not be invoked on assembly failure, got %d calls", cm.calls)
	}
}

func TestPredictMissingFeaturesPassThrough(t *testing.T) {
	// A bundle expecting a feature the assembler never produces: the value
	// must arrive as missing and be imputed inside the pipeline, not zeroed
	// by the orchestrator.
	b := canonicalBundle()
	b.FeatureOrder = append(b.FeatureOrder, "DEP_AIRPORT_TRAFFIC")
	b.Medians["DEP_AIRPORT_TRAFFIC"] = 250
	b.Trees = []model.Stump{{
		// DEP_AIRPORT_TRAFFIC is the last slot of the encoded vector.
		Feature:   b.VectorWidth() - 1,
		Threshold: 100,
		Left:      -5,
		Right:     5,
	}}

	p := New(simulateAssembler(), fixedLoader(b))
	date, _ := time.Parse("2006-01-02", "2024-03-10")
	res, err := p.Predict(context.Background(), "UA245", date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Imputed 250 >= 100 routes right (+5): probability must be high. A
	// zeroed value would have routed left.
	if res.DelayedLabel != 1 {
		t.Errorf("imputed feature should drive the positive leaf, got %+v", res)
	}
}

func TestPredictLoadsBundleOnce(t *testing.T) {
	loads := 0
	p := New(simulateAssembler(), func() (Model, error) {
		loads++
		return canonicalBundle(), nil
	})

	date, _ := time.Parse("2006-01-02", "2024-03-10")
	for i := 0; i < 3; i++ {
		if _, err := p.Predict(context.Background(), "UA245", date); err != nil {
			t.Fatal(err)
		}
	}
	if loads != 1 {
		t.Errorf("bundle must be loaded exactly once, got %d loads", loads)
	}
}

func TestPredictSurfacesLoadFailure(t *testing.T) {
	p := New(simulateAssembler(), func() (Model, error) {
		return nil, errors.New("no such file")
	})
	if _, err := p.Predict(context.Background(), "UA245", time.Now()); err == nil {
		t.Fatal("expected an error when the bundle cannot be loaded")
	}
}

type panickyModel struct{ Model }

func (panickyModel) PredictProba(row *features.Row) (float64, error) { panic("corrupt artifact") }

func TestPredictRecoversFromScoringPanic(t *testing.T) {
	p := New(simulateAssembler(), fixedLoader(panickyModel{Model: canonicalBundle()}))

	date, _ := time.Parse("2006-01-02", "2024-03-10")
	_, err := p.Predict(context.Background(), "UA245", date)
	if err == nil {
		t.Fatal("expected a scoring panic to surface as an error")
	}
}
