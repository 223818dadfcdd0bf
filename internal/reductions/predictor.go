package reductions

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
)

// RandomizedPredictor is a probability distribution over candidate
// classifiers.
//
// In deterministic mode each example gets the weighted average of the
// candidates' 0/1 outputs thresholded at 0.5. In stochastic mode one
// candidate is drawn per example per call from a seeded source; the fairness
// guarantee of the reduction is stated for this policy. PredictProba is the
// same weighted average in both modes, which is the expected output of the
// stochastic policy.
type RandomizedPredictor struct {
	candidates []classifier.Predictor
	weights    []float64
	mode       domain.PredictionMode
	seed       int64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizedPredictor validates and normalises the mixture weights.
func NewRandomizedPredictor(
	candidates []classifier.Predictor,
	weights []float64,
	mode domain.PredictionMode,
	seed int64,
) (*RandomizedPredictor, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: randomized predictor needs at least one candidate", domain.ErrInvalidRequest)
	}
	if err := domain.CheckLength("weights", len(candidates), len(weights)); err != nil {
		return nil, err
	}
	switch mode {
	case domain.PredictDeterministic, domain.PredictStochastic:
	default:
		return nil, fmt.Errorf("%w: unknown prediction mode %q", domain.ErrInvalidConfig, mode)
	}

	var sum float64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight[%d] = %v", domain.ErrInvalidRequest, i, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: mixture weights sum to zero", domain.ErrInvalidRequest)
	}
	norm := make([]float64, len(weights))
	for i, w := range weights {
		norm[i] = w / sum
	}

	return &RandomizedPredictor{
		candidates: candidates,
		weights:    norm,
		mode:       mode,
		seed:       seed,
		rng:        newRand(seed),
	}, nil
}

func newRand(seed int64) *rand.Rand { return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)) }

// WithMode returns a predictor over the same mixture answering in mode,
// with a sampling source reset to the seed.
func (p *RandomizedPredictor) WithMode(mode domain.PredictionMode) (*RandomizedPredictor, error) {
	return NewRandomizedPredictor(p.candidates, p.weights, mode, p.seed)
}

// Mode returns the prediction mode.
func (p *RandomizedPredictor) Mode() domain.PredictionMode { return p.mode }

// Seed returns the sampling seed.
func (p *RandomizedPredictor) Seed() int64 { return p.seed }

// Candidates returns the mixture members in the order they were fitted.
func (p *RandomizedPredictor) Candidates() []classifier.Predictor { return p.candidates }

// Weights returns the normalised mixture weights.
func (p *RandomizedPredictor) Weights() []float64 { return p.weights }

// PredictProba returns the mixture-weighted average of candidate labels.
func (p *RandomizedPredictor) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for c, cand := range p.candidates {
		w := p.weights[c]
		for i, y := range cand.Predict(X) {
			out[i] += w * float64(y)
		}
	}
	return out
}

// Predict answers according to the predictor's mode. Stochastic calls are
// serialised on the internal source.
func (p *RandomizedPredictor) Predict(X [][]float64) []int {
	if p.mode == domain.PredictStochastic {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.PredictWithRand(X, p.rng)
	}
	return classifier.Threshold(p.PredictProba(X))
}

// PredictWithRand samples one candidate per example from rng.
func (p *RandomizedPredictor) PredictWithRand(X [][]float64, rng *rand.Rand) []int {
	preds := make([][]int, len(p.candidates))
	for c, cand := range p.candidates {
		preds[c] = cand.Predict(X)
	}

	out := make([]int, len(X))
	for i := range X {
		out[i] = preds[p.sample(rng.Float64())][i]
	}
	return out
}

func (p *RandomizedPredictor) sample(u float64) int {
	var acc float64
	for c, w := range p.weights {
		acc += w
		if u < acc {
			return c
		}
	}
	return len(p.weights) - 1
}
