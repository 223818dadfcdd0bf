package metrics

import (
	"fmt"
	"maps"
	"slices"

	"github.com/ahrav/go-fairness/internal/domain"
)

// MetricFunc computes a scalar from two equal-length binary sequences.
// Implementations must return a finite value; undefined ratios (for example
// precision with no positive predictions) are reported as 0.
type MetricFunc func(yTrue, yPred []int) float64

// Metric names understood by Lookup.
const (
	NameAccuracy          = "accuracy"
	NamePrecision         = "precision"
	NameRecall            = "recall"
	NameF1                = "f1"
	NameSelectionRate     = "selection_rate"
	NameTruePositiveRate  = "tpr"
	NameFalsePositiveRate = "fpr"
	NameTrueNegativeRate  = "tnr"
	NameFalseNegativeRate = "fnr"
	NameCount             = "count"
)

var registry = map[string]MetricFunc{
	NameAccuracy:          Accuracy,
	NamePrecision:         Precision,
	NameRecall:            Recall,
	NameF1:                F1,
	NameSelectionRate:     SelectionRate,
	NameTruePositiveRate:  TruePositiveRate,
	NameFalsePositiveRate: FalsePositiveRate,
	NameTrueNegativeRate:  TrueNegativeRate,
	NameFalseNegativeRate: FalseNegativeRate,
	NameCount:             Count,
}

// Names returns the registered metric names in sorted order.
func Names() []string { return slices.Sorted(maps.Keys(registry)) }

// Lookup resolves metric names to functions.
func Lookup(names ...string) (map[string]MetricFunc, error) {
	out := make(map[string]MetricFunc, len(names))
	for _, name := range names {
		fn, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMetric, name)
		}
		out[name] = fn
	}
	return out, nil
}

// confusion holds binary confusion-matrix counts.
type confusion struct{ tp, fp, tn, fn int }

func count(yTrue, yPred []int) confusion {
	var c confusion
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			c.tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			c.fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Accuracy is the fraction of matching labels.
func Accuracy(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.tp+c.tn, len(yTrue))
}

// Precision is tp / (tp + fp).
func Precision(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.tp, c.tp+c.fp)
}

// Recall is tp / (tp + fn).
func Recall(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.tp, c.tp+c.fn)
}

// F1 is the harmonic mean of precision and recall.
func F1(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	p, r := ratio(c.tp, c.tp+c.fp), ratio(c.tp, c.tp+c.fn)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// SelectionRate is the fraction of positive predictions. Labels are ignored.
func SelectionRate(_, yPred []int) float64 {
	pos := 0
	for _, p := range yPred {
		pos += p
	}
	return ratio(pos, len(yPred))
}

// TruePositiveRate is recall under its fairness name.
func TruePositiveRate(yTrue, yPred []int) float64 { return Recall(yTrue, yPred) }

// FalsePositiveRate is fp / (fp + tn).
func FalsePositiveRate(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.fp, c.fp+c.tn)
}

// TrueNegativeRate is tn / (tn + fp).
func TrueNegativeRate(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.tn, c.tn+c.fp)
}

// FalseNegativeRate is fn / (fn + tp).
func FalseNegativeRate(yTrue, yPred []int) float64 {
	c := count(yTrue, yPred)
	return ratio(c.fn, c.fn+c.tp)
}

// Count is the number of examples.
func Count(yTrue, _ []int) float64 { return float64(len(yTrue)) }
