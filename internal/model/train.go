package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"flight-delay-prediction/internal/features"
)

// TrainOptions controls the boosting run.
type TrainOptions struct {
	Rounds       int
	LearningRate float64
	Version      string
}

func (o TrainOptions) withDefaults() TrainOptions {
	if o.Rounds <= 0 {
		o.Rounds = 200
	}
	if o.LearningRate <= 0 {
		o.LearningRate = 0.1
	}
	if o.Version == "" {
		o.Version = "dev"
	}
	return o
}

const l2Regularization = 1.0

// Fit trains gradient-boosted stumps on logistic loss and packages them with
// the feature contract into a Bundle. featureOrder fixes the canonical order;
// categorical names the features that one-hot encode (vocabularies are built
// from the training rows, unseen codes score as all-zero blocks). Numeric
// medians are captured for serving-time imputation.
func Fit(rows []*features.Row, labels []int, featureOrder, categorical []string, opts TrainOptions) (*Bundle, error) {
	if len(rows) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(rows) != len(labels) {
		return nil, fmt.Errorf("rows (%d) and labels (%d) are misaligned", len(rows), len(labels))
	}
	opts = opts.withDefaults()

	bundle := &Bundle{
		Version:      opts.Version,
		FeatureOrder: append([]string(nil), featureOrder...),
		Categorical:  buildVocabularies(rows, categorical),
		Medians:      map[string]float64{},
	}
	fitMedians(bundle, rows, categorical)

	matrix := make([][]float64, len(rows))
	for i, row := range rows {
		matrix[i] = bundle.Encode(row)
	}

	n := len(rows)
	positives := 0
	for _, y := range labels {
		positives += y
	}
	bundle.Bias = logOdds(float64(positives) / float64(n))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = bundle.Bias
	}

	grad := make([]float64, n)
	hess := make([]float64, n)
	for round := 0; round < opts.Rounds; round++ {
		for i := range matrix {
			p := sigmoid(scores[i])
			grad[i] = p - float64(labels[i])
			hess[i] = p * (1 - p)
		}

		stump, ok := bestStump(matrix, grad, hess, opts.LearningRate)
		if !ok {
			break
		}
		bundle.Trees = append(bundle.Trees, stump)

		for i := range matrix {
			if matrix[i][stump.Feature] < stump.Threshold {
				scores[i] += stump.Left
			} else {
				scores[i] += stump.Right
			}
		}
	}

	return bundle, nil
}

// EvalAUC scores a hold-out set and returns the area under the ROC curve.
func EvalAUC(b *Bundle, rows []*features.Row, labels []int) (float64, error) {
	if len(rows) == 0 {
		return 0, errors.New("no evaluation rows")
	}

	type scored struct {
		score float64
		pos   bool
	}
	items := make([]scored, len(rows))
	for i, row := range rows {
		p, err := b.PredictProba(row)
		if err != nil {
			return 0, err
		}
		items[i] = scored{score: p, pos: labels[i] == 1}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].score < items[j].score })

	y := make([]float64, len(items))
	classes := make([]bool, len(items))
	for i, it := range items {
		y[i] = it.score
		classes[i] = it.pos
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

func buildVocabularies(rows []*features.Row, categorical []string) map[string][]string {
	vocabs := make(map[string][]string, len(categorical))
	for _, name := range categorical {
		seen := make(map[string]struct{})
		for _, row := range rows {
			if code, ok := row.Get(name).Text(); ok {
				seen[code] = struct{}{}
			}
		}
		vocab := make([]string, 0, len(seen))
		for code := range seen {
			vocab = append(vocab, code)
		}
		sort.Strings(vocab)
		vocabs[name] = vocab
	}
	return vocabs
}

func fitMedians(b *Bundle, rows []*features.Row, categorical []string) {
	isCategorical := make(map[string]bool, len(categorical))
	for _, name := range categorical {
		isCategorical[name] = true
	}

	for _, name := range b.FeatureOrder {
		if isCategorical[name] {
			continue
		}
		var present []float64
		for _, row := range rows {
			if v, ok := row.Get(name).Float(); ok {
				present = append(present, v)
			}
		}
		if len(present) == 0 {
			b.Medians[name] = 0
			continue
		}
		sort.Float64s(present)
		b.Medians[name] = stat.Quantile(0.5, stat.LinInterp, present, nil)
	}
}

// bestStump scans every encoded column for the split with the largest gain
// under the usual second-order approximation and returns the stump with
// Newton-step leaf values scaled by the learning rate.
func bestStump(matrix [][]float64, grad, hess []float64, learningRate float64) (Stump, bool) {
	if len(matrix) == 0 {
		return Stump{}, false
	}
	width := len(matrix[0])

	var sumG, sumH float64
	for i := range grad {
		sumG += grad[i]
		sumH += hess[i]
	}
	baseGain := sumG * sumG / (sumH + l2Regularization)

	best := Stump{}
	bestGain := 0.0
	found := false

	for col := 0; col < width; col++ {
		for _, threshold := range candidateThresholds(matrix, col) {
			var leftG, leftH float64
			for i := range matrix {
				if matrix[i][col] < threshold {
					leftG += grad[i]
					leftH += hess[i]
				}
			}
			rightG := sumG - leftG
			rightH := sumH - leftH
			if leftH == 0 || rightH == 0 {
				continue
			}

			gain := leftG*leftG/(leftH+l2Regularization) +
				rightG*rightG/(rightH+l2Regularization) - baseGain
			if gain > bestGain {
				bestGain = gain
				found = true
				best = Stump{
					Feature:   col,
					Threshold: threshold,
					Left:      -learningRate * leftG / (leftH + l2Regularization),
					Right:     -learningRate * rightG / (rightH + l2Regularization),
				}
			}
		}
	}

	return best, found
}

func candidateThresholds(matrix [][]float64, col int) []float64 {
	seen := make(map[float64]struct{})
	for i := range matrix {
		seen[matrix[i][col]] = struct{}{}
	}
	if len(seen) < 2 {
		return nil
	}
	values := make([]float64, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Float64s(values)

	thresholds := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		thresholds = append(thresholds, (values[i-1]+values[i])/2)
	}
	return thresholds
}

func logOdds(p float64) float64 {
	const eps = 1e-6
	p = math.Min(math.Max(p, eps), 1-eps)
	return math.Log(p / (1 - p))
}
