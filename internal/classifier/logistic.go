package classifier

import (
	"math"
	"math/rand/v2"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/ahrav/go-fairness/internal/domain"
)

// LogisticRegression is a binary logistic model trained by full-batch
// gradient descent on weighted cross-entropy with an L2 penalty.
//
// Coefficients and Bias are exported so fitted models can be serialised.
type LogisticRegression struct {
	Coefficients []float64 `json:"coefficients"`
	Bias         float64   `json:"bias"`

	cfg  domain.OracleConfig
	seed int64
}

// NewLogisticRegression returns an unfitted model.
func NewLogisticRegression(cfg domain.OracleConfig, seed int64) *LogisticRegression {
	return &LogisticRegression{cfg: cfg, seed: seed}
}

// LogisticFactory builds a Factory of logistic oracles sharing cfg.
func LogisticFactory(cfg domain.OracleConfig) Factory {
	return func(seed int64) Oracle { return NewLogisticRegression(cfg, seed) }
}

// Fit trains on (X, y) with per-example weights. Weights are rescaled to
// mean one so the learning rate is independent of their magnitude.
func (m *LogisticRegression) Fit(X [][]float64, y []int, weights []float64) error {
	if err := m.cfg.Validate(); err != nil {
		return err
	}
	w, err := checkFitInputs(X, y, weights)
	if err != nil {
		return err
	}

	n, d := len(X), len(X[0])
	rng := rand.New(rand.NewPCG(uint64(m.seed), 0x5eed))
	coef := make([]float64, d)
	for j := range coef {
		coef[j] = rng.NormFloat64() * 0.01
	}
	bias := 0.0

	grad := make([]float64, d)
	invN := 1 / float64(n)
	for range m.cfg.Epochs {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, row := range X {
			r := w[i] * (sigmoid(floats.Dot(coef, row)+bias) - float64(y[i]))
			floats.AddScaled(grad, r, row)
			gb += r
		}
		floats.Scale(invN, grad)
		floats.AddScaled(grad, m.cfg.L2, coef)

		floats.AddScaled(coef, -m.cfg.LearningRate, grad)
		bias -= m.cfg.LearningRate * gb * invN
	}

	m.Coefficients, m.Bias = coef, bias
	return nil
}

// PredictProba returns sigmoid scores, computed in parallel row blocks.
// Rows must have the width the model was fitted on. An unfitted model
// scores every row at sigmoid(0).
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(X) == 0 {
		return out
	}

	workers := runtime.GOMAXPROCS(0)
	per := (len(X) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(X); start += per {
		end := min(start+per, len(X))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				z := m.Bias
				if len(m.Coefficients) > 0 {
					z += floats.Dot(m.Coefficients, X[i])
				}
				out[i] = sigmoid(z)
			}
		}()
	}
	wg.Wait()
	return out
}

// Predict thresholds PredictProba at 0.5.
func (m *LogisticRegression) Predict(X [][]float64) []int { return Threshold(m.PredictProba(X)) }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
