package metrics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-fairness/internal/domain"
)

// TestEvaluate_Scenario covers the four-example reference case: two groups
// with opposite selection behaviour.
func TestEvaluate_Scenario(t *testing.T) {
	yTrue := []int{1, 0, 1, 0}
	yPred := []int{1, 1, 0, 0}
	sensitive := domain.SingleAttribute("group", "A", "A", "B", "B")

	res, err := EvaluateNamed(yTrue, yPred, sensitive, []string{NameSelectionRate, NameAccuracy})
	require.NoError(t, err)

	a, b := domain.NewGroupKey("A"), domain.NewGroupKey("B")
	assert.InDelta(t, 0.5, res.Overall[NameSelectionRate], 1e-12)
	assert.InDelta(t, 1.0, res.ByGroup[a][NameSelectionRate], 1e-12)
	assert.InDelta(t, 0.0, res.ByGroup[b][NameSelectionRate], 1e-12)
	assert.InDelta(t, 0.5, res.Overall[NameAccuracy], 1e-12)
	assert.Equal(t, []domain.GroupKey{a, b}, res.Groups)
	assert.Equal(t, []string{NameAccuracy, NameSelectionRate}, res.Metrics)
	assert.Equal(t, map[domain.GroupKey]int{a: 2, b: 2}, res.Counts)
	assert.Equal(t, 4, res.Total)
}

// TestEvaluate_OverallMatchesUnsplit checks that overall values are exactly the
// metric applied to the full vectors, for every registered metric.
func TestEvaluate_OverallMatchesUnsplit(t *testing.T) {
	yTrue := []int{1, 1, 0, 0, 1, 0, 1, 1, 0, 0, 1}
	yPred := []int{1, 0, 0, 1, 1, 0, 1, 0, 0, 1, 1}
	sensitive := domain.SingleAttribute("g", "x", "y", "z", "x", "y", "z", "x", "y", "z", "x", "y")

	fns, err := Lookup(Names()...)
	require.NoError(t, err)

	res, err := Evaluate(yTrue, yPred, sensitive, fns)
	require.NoError(t, err)

	for name, fn := range fns {
		assert.Equal(t, fn(yTrue, yPred), res.Overall[name], "metric %s", name)
	}
}

// TestEvaluate_GroupKeysAndCounts verifies that by_group holds exactly the
// groups with support and that counts add up to the total.
func TestEvaluate_GroupKeysAndCounts(t *testing.T) {
	sensitive, err := domain.NewSensitiveTable([]string{"sex", "race"}, [][]string{
		{"F", "W"}, {"M", "B"}, {"F", "W"}, {"M", "W"}, {"F", "B"}, {"M", "B"}, {"M", "B"},
	})
	require.NoError(t, err)
	yTrue := []int{1, 0, 1, 1, 0, 0, 1}
	yPred := []int{1, 0, 0, 1, 1, 0, 1}

	res, err := EvaluateNamed(yTrue, yPred, sensitive, []string{NameCount, NameSelectionRate})
	require.NoError(t, err)

	want := []domain.GroupKey{
		domain.NewGroupKey("F", "B"),
		domain.NewGroupKey("F", "W"),
		domain.NewGroupKey("M", "B"),
		domain.NewGroupKey("M", "W"),
	}
	assert.Equal(t, want, res.Groups)
	assert.Len(t, res.ByGroup, len(want))

	total := 0
	for _, g := range res.Groups {
		require.Contains(t, res.ByGroup, g)
		assert.Positive(t, res.Counts[g], "no zero-count group may appear")
		assert.Equal(t, float64(res.Counts[g]), res.ByGroup[g][NameCount])
		total += res.Counts[g]
	}
	assert.Equal(t, len(yTrue), total)
}

// TestEvaluate_NoSpuriousGroups makes sure groups never present in the table
// are not synthesised, even after subsetting.
func TestEvaluate_NoSpuriousGroups(t *testing.T) {
	full := domain.SingleAttribute("g", "A", "B", "C", "A")
	sub := full.Subset([]int{0, 3})

	res, err := EvaluateNamed([]int{1, 0}, []int{1, 1}, sub, []string{NameSelectionRate})
	require.NoError(t, err)
	assert.Equal(t, []domain.GroupKey{domain.NewGroupKey("A")}, res.Groups)
	assert.NotContains(t, res.ByGroup, domain.NewGroupKey("B"))
	assert.NotContains(t, res.ByGroup, domain.NewGroupKey("C"))
}

// TestEvaluate_Errors covers shape, label and metric failures.
func TestEvaluate_Errors(t *testing.T) {
	sensitive := domain.SingleAttribute("g", "A", "B")
	fns := map[string]MetricFunc{NameAccuracy: Accuracy}

	tests := []struct {
		name    string
		yTrue   []int
		yPred   []int
		table   domain.SensitiveTable
		fns     map[string]MetricFunc
		wantErr error
	}{
		{"prediction length", []int{1, 0}, []int{1}, sensitive, fns, domain.ErrShapeMismatch},
		{"sensitive length", []int{1, 0, 1}, []int{1, 0, 1}, sensitive, fns, domain.ErrShapeMismatch},
		{"non-binary label", []int{2, 0}, []int{1, 0}, sensitive, fns, domain.ErrNonBinaryLabel},
		{"non-binary prediction", []int{1, 0}, []int{1, -1}, sensitive, fns, domain.ErrNonBinaryLabel},
		{"no metrics", []int{1, 0}, []int{1, 0}, sensitive, nil, domain.ErrInvalidRequest},
		{
			"non-finite metric", []int{1, 0}, []int{1, 0}, sensitive,
			map[string]MetricFunc{"nan": func(_, _ []int) float64 { return math.NaN() }},
			domain.ErrInvalidMetric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate(tt.yTrue, tt.yPred, tt.table, tt.fns)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	t.Run("shape mismatch is typed", func(t *testing.T) {
		_, err := Evaluate([]int{1}, []int{1, 0}, sensitive, fns)
		var shapeErr *domain.ShapeMismatchError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, "y_pred", shapeErr.Field)
		assert.Equal(t, 1, shapeErr.Want)
		assert.Equal(t, 2, shapeErr.Got)
	})

	t.Run("unknown metric name", func(t *testing.T) {
		_, err := EvaluateNamed([]int{1, 0}, []int{1, 0}, sensitive, []string{"auc"})
		assert.ErrorIs(t, err, domain.ErrUnknownMetric)
	})
}

// TestEvaluate_Idempotent verifies bit-identical results across repeated runs
// and across concurrency settings.
func TestEvaluate_Idempotent(t *testing.T) {
	n := 500
	yTrue, yPred := make([]int, n), make([]int, n)
	groups := make([]string, n)
	for i := range n {
		yTrue[i] = (i * 7 % 11) % 2
		yPred[i] = (i * 5 % 13) % 2
		groups[i] = []string{"a", "b", "c", "d"}[i%4]
	}
	sensitive := domain.SingleAttribute("g", groups...)

	first, err := EvaluateNamed(yTrue, yPred, sensitive, Names())
	require.NoError(t, err)
	second, err := EvaluateNamed(yTrue, yPred, sensitive, Names())
	require.NoError(t, err)
	sequential, err := EvaluateNamed(yTrue, yPred, sensitive, Names(), WithConcurrency(1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, sequential)
}
