// Package metrics implements the grouped-metric engine: every requested
// metric is computed once over all examples and once per sensitive group.
package metrics

import (
	"fmt"
	"maps"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-fairness/internal/domain"
)

// Option configures Evaluate.
type Option func(*options)

type options struct {
	concurrency int
}

// WithConcurrency bounds the number of metric cells computed in parallel.
// Values below one mean sequential evaluation.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = max(n, 1) }
}

// partition is the stable split of example indices by GroupKey.
type partition struct {
	groups []domain.GroupKey
	yTrue  [][]int
	yPred  [][]int
}

func partitionByGroup(yTrue, yPred []int, keys []domain.GroupKey) partition {
	idx := make(map[domain.GroupKey][]int, 8)
	for i, k := range keys {
		idx[k] = append(idx[k], i)
	}

	p := partition{groups: slices.Collect(maps.Keys(idx))}
	domain.SortGroupKeys(p.groups)
	p.yTrue = make([][]int, len(p.groups))
	p.yPred = make([][]int, len(p.groups))
	for gi, g := range p.groups {
		members := idx[g]
		t, q := make([]int, len(members)), make([]int, len(members))
		for j, i := range members {
			t[j], q[j] = yTrue[i], yPred[i]
		}
		p.yTrue[gi], p.yPred[gi] = t, q
	}
	return p
}

// Evaluate computes every metric in fns overall and per group.
//
// Inputs must be length-aligned (ShapeMismatchError otherwise) and binary.
// Groups appear in the result only when they have at least one example.
// The computation is pure: identical inputs give identical results regardless
// of the concurrency setting, since every (group, metric) cell writes its own
// slot.
func Evaluate(
	yTrue, yPred []int,
	sensitive domain.SensitiveTable,
	fns map[string]MetricFunc,
	opts ...Option,
) (*domain.MetricResult, error) {
	o := options{concurrency: runtime.GOMAXPROCS(0)}
	for _, opt := range opts {
		opt(&o)
	}

	n := len(yTrue)
	if err := domain.CheckLength("y_pred", n, len(yPred)); err != nil {
		return nil, err
	}
	if err := domain.CheckLength("sensitive", n, sensitive.Len()); err != nil {
		return nil, err
	}
	if err := domain.ValidateBinary("y_true", yTrue); err != nil {
		return nil, err
	}
	if err := domain.ValidateBinary("y_pred", yPred); err != nil {
		return nil, err
	}
	if len(fns) == 0 {
		return nil, fmt.Errorf("%w: no metrics requested", domain.ErrInvalidRequest)
	}

	names := slices.Sorted(maps.Keys(fns))
	part := partitionByGroup(yTrue, yPred, sensitive.Keys())

	// Row 0 is overall; row g+1 is group g.
	values := make([][]float64, len(part.groups)+1)
	for r := range values {
		values[r] = make([]float64, len(names))
	}

	var eg errgroup.Group
	eg.SetLimit(o.concurrency)
	for r := range values {
		t, q := yTrue, yPred
		if r > 0 {
			t, q = part.yTrue[r-1], part.yPred[r-1]
		}
		for m, name := range names {
			fn := fns[name]
			eg.Go(func() error {
				v := fn(t, q)
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return fmt.Errorf("%w: %s = %v", domain.ErrInvalidMetric, name, v)
				}
				values[r][m] = v
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	res := &domain.MetricResult{
		Overall: make(map[string]float64, len(names)),
		ByGroup: make(map[domain.GroupKey]map[string]float64, len(part.groups)),
		Groups:  part.groups,
		Metrics: names,
		Counts:  make(map[domain.GroupKey]int, len(part.groups)),
		Total:   n,
	}
	for m, name := range names {
		res.Overall[name] = values[0][m]
	}
	for gi, g := range part.groups {
		row := make(map[string]float64, len(names))
		for m, name := range names {
			row[name] = values[gi+1][m]
		}
		res.ByGroup[g] = row
		res.Counts[g] = len(part.yTrue[gi])
	}
	return res, nil
}

// EvaluateNamed resolves registered metric names and evaluates them.
func EvaluateNamed(
	yTrue, yPred []int,
	sensitive domain.SensitiveTable,
	names []string,
	opts ...Option,
) (*domain.MetricResult, error) {
	fns, err := Lookup(names...)
	if err != nil {
		return nil, err
	}
	return Evaluate(yTrue, yPred, sensitive, fns, opts...)
}
