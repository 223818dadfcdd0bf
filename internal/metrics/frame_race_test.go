package metrics

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fairness/internal/domain"
)

func randomInputs(seed uint64, n, groups int) ([]int, []int, domain.SensitiveTable) {
	rng := rand.New(rand.NewPCG(seed, 3))
	yTrue, yPred := make([]int, n), make([]int, n)
	names := make([]string, n)
	for i := range n {
		yTrue[i] = rng.IntN(2)
		yPred[i] = rng.IntN(2)
		names[i] = fmt.Sprintf("g%d", rng.IntN(groups))
	}
	return yTrue, yPred, domain.SingleAttribute("g", names...)
}

// TestEvaluate_ConcurrencyEquivalence checks that parallel cell evaluation
// gives the same result as the sequential path on random inputs.
// Run with: go test -race -run TestEvaluate_ConcurrencyEquivalence
func TestEvaluate_ConcurrencyEquivalence(t *testing.T) {
	for seed := range uint64(20) {
		yTrue, yPred, sensitive := randomInputs(seed, 50+int(seed)*37, 2+int(seed%6))

		sequential, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(1))
		require.NoError(t, err)
		parallel, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(8))
		require.NoError(t, err)

		assert.Equal(t, sequential, parallel, "seed %d", seed)
	}
}

// TestEvaluate_ConcurrentCallers shares one set of inputs between goroutines;
// Evaluate must not write to its arguments.
func TestEvaluate_ConcurrentCallers(t *testing.T) {
	const numGoroutines = 10

	yTrue, yPred, sensitive := randomInputs(99, 400, 5)
	want, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan *domain.MetricResult, numGoroutines)
	errs := make(chan error, numGoroutines)
	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(8))
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	got := 0
	for res := range results {
		assert.Equal(t, want, res)
		got++
	}
	assert.Equal(t, numGoroutines, got)
}
