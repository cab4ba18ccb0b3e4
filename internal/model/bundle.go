// Package model holds the trained artifact: a fitted scoring pipeline plus
// the canonical ordered feature list it expects. The bundle is immutable once
// produced and is loaded read-only by the serving process.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"flight-delay-prediction/internal/features"
)

// Stump is one depth-1 regression tree over the encoded feature vector.
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`  // leaf value when x < threshold
	Right     float64 `json:"right"` // leaf value when x >= threshold
}

// Bundle is the serialized training artifact. FeatureOrder is the contract
// between training and serving: rows are scored strictly in this order.
// Categorical carries the one-hot vocabulary per categorical feature and
// Medians the imputation value per numeric feature, so the pipeline itself
// resolves missing values and unseen codes.
type Bundle struct {
	Version      string              `json:"version"`
	FeatureOrder []string            `json:"feature_order"`
	Categorical  map[string][]string `json:"categorical"`
	Medians      map[string]float64  `json:"medians"`
	Bias         float64             `json:"bias"`
	Trees        []Stump             `json:"trees"`
}

// Load reads a bundle from disk.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model bundle: %w", err)
	}
	var b Bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode model bundle: %w", err)
	}
	if len(b.FeatureOrder) == 0 {
		return nil, errors.New("model bundle has an empty feature order")
	}
	return &b, nil
}

// Save writes the bundle to disk.
func (b *Bundle) Save(path string) error {
	raw, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model bundle: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write model bundle: %w", err)
	}
	return nil
}

// FeatureNames returns the canonical ordered feature list.
func (b *Bundle) FeatureNames() []string {
	out := make([]string, len(b.FeatureOrder))
	copy(out, b.FeatureOrder)
	return out
}

// ModelVersion returns the bundle's version string verbatim.
func (b *Bundle) ModelVersion() string {
	return b.Version
}

// PredictProba scores a feature row and returns the probability of the
// positive (delayed) class. Missing values are imputed inside the pipeline;
// unseen categorical codes encode to all-zero one-hot blocks.
func (b *Bundle) PredictProba(row *features.Row) (float64, error) {
	if len(b.FeatureOrder) == 0 {
		return 0, errors.New("model bundle has an empty feature order")
	}

	vec := b.Encode(row)
	score := b.Bias
	for _, tree := range b.Trees {
		if tree.Feature < 0 || tree.Feature >= len(vec) {
			return 0, fmt.Errorf("tree references feature index %d outside the encoded vector", tree.Feature)
		}
		if vec[tree.Feature] < tree.Threshold {
			score += tree.Left
		} else {
			score += tree.Right
		}
	}
	return sigmoid(score), nil
}

// Encode maps a feature row onto the dense vector the trees were fit on:
// one-hot blocks for categorical features, single imputed slots for numeric
// ones, laid out in FeatureOrder.
func (b *Bundle) Encode(row *features.Row) []float64 {
	vec := make([]float64, 0, b.VectorWidth())
	for _, name := range b.FeatureOrder {
		value := row.Get(name)

		if vocab, categorical := b.Categorical[name]; categorical {
			block := make([]float64, len(vocab))
			if code, ok := value.Text(); ok {
				for i, v := range vocab {
					if v == code {
						block[i] = 1
						break
					}
				}
			}
			vec = append(vec, block...)
			continue
		}

		if v, ok := value.Float(); ok {
			vec = append(vec, v)
		} else {
			vec = append(vec, b.Medians[name])
		}
	}
	return vec
}

// VectorWidth is the length of the encoded vector.
func (b *Bundle) VectorWidth() int {
	width := 0
	for _, name := range b.FeatureOrder {
		if vocab, ok := b.Categorical[name]; ok {
			width += len(vocab)
		} else {
			width++
		}
	}
	return width
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
