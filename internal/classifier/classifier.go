// Package classifier provides the weighted binary learners used as the
// baseline model and as the cost-sensitive oracle of the reduction.
package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/ahrav/go-fairness/internal/domain"
)

// Predictor answers hard and soft binary predictions for feature rows.
type Predictor interface {
	// Predict returns 0/1 labels.
	Predict(X [][]float64) []int
	// PredictProba returns P(y = 1) per row.
	PredictProba(X [][]float64) []float64
}

// Oracle is a Predictor that can be re-fitted on weighted examples.
// Negative weights are clipped to zero, the clipped sum must be positive, and
// a nil weights slice means uniform weighting.
type Oracle interface {
	Predictor
	Fit(X [][]float64, y []int, weights []float64) error
}

// Factory returns a fresh, unfitted Oracle seeded for reproducibility.
type Factory func(seed int64) Oracle

// ErrDegenerateWeights indicates a weight vector that cannot define a
// training objective: non-finite, or summing to zero once negative entries are
// clipped.
var ErrDegenerateWeights = errors.New("degenerate sample weights")

// checkFitInputs validates shapes and returns weights normalised to sum to n.
// An example with a negative weight is ignored.
func checkFitInputs(X [][]float64, y []int, weights []float64) ([]float64, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("%w: no training examples", domain.ErrInvalidRequest)
	}
	if err := domain.CheckLength("labels", n, len(y)); err != nil {
		return nil, err
	}
	if err := domain.CheckFeatureWidth(X); err != nil {
		return nil, err
	}
	if err := domain.ValidateBinary("labels", y); err != nil {
		return nil, err
	}

	w := make([]float64, n)
	if weights == nil {
		for i := range w {
			w[i] = 1
		}
		return w, nil
	}
	if err := domain.CheckLength("weights", n, len(weights)); err != nil {
		return nil, err
	}

	var sum float64
	for i, v := range weights {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: weight[%d] = %v", ErrDegenerateWeights, i, v)
		}
		w[i] = max(v, 0)
		sum += w[i]
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", ErrDegenerateWeights)
	}
	scale := float64(n) / sum
	for i := range w {
		w[i] *= scale
	}
	return w, nil
}

// Threshold converts probabilities to labels at p >= 0.5.
func Threshold(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out
}
