// Package fairness derives difference and ratio summaries from grouped metric
// results. Gaps are worst case across all observed groups: the spread between
// the highest and lowest group value, not a pairwise or one-vs-mean figure.
package fairness

import (
	"fmt"

	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/metrics"
)

// Gap summarises one metric across the groups of a result.
//
// difference = max − min and ratio = min / max, with ratio defined as 1 when
// max is 0 (every group has a zero rate). Groups are visited in canonical
// order so ties resolve to the first group. Fails with
// InsufficientGroupsError when fewer than two groups have support.
func Gap(result *domain.MetricResult, metric string) (domain.GapSummary, error) {
	supported := make([]domain.GroupKey, 0, len(result.Groups))
	for _, g := range result.Groups {
		if result.Counts[g] > 0 {
			supported = append(supported, g)
		}
	}
	if len(supported) < 2 {
		return domain.GapSummary{}, &domain.InsufficientGroupsError{Metric: metric, Groups: len(supported)}
	}

	s := domain.GapSummary{Metric: metric}
	for i, g := range supported {
		v, ok := result.Value(g, metric)
		if !ok {
			return domain.GapSummary{}, fmt.Errorf("%w: %q not in result", domain.ErrUnknownMetric, metric)
		}
		if i == 0 || v < s.Min {
			s.Min, s.MinGroup = v, g
		}
		if i == 0 || v > s.Max {
			s.Max, s.MaxGroup = v, g
		}
	}

	s.Difference = s.Max - s.Min
	s.Ratio = 1
	if s.Max != 0 {
		s.Ratio = s.Min / s.Max
	}
	return s, nil
}

// DemographicParity is the selection-rate gap of a result.
func DemographicParity(result *domain.MetricResult) (domain.GapSummary, error) {
	return Gap(result, metrics.NameSelectionRate)
}

// EqualOpportunity is the true-positive-rate gap of a result.
func EqualOpportunity(result *domain.MetricResult) (domain.GapSummary, error) {
	return Gap(result, metrics.NameTruePositiveRate)
}

// DemographicParityDifference computes the selection-rate difference directly
// from labels, predictions and sensitive rows.
func DemographicParityDifference(yTrue, yPred []int, sensitive domain.SensitiveTable) (float64, error) {
	s, err := gapFromPredictions(yTrue, yPred, sensitive, metrics.NameSelectionRate)
	return s.Difference, err
}

// DemographicParityRatio computes the selection-rate ratio directly.
func DemographicParityRatio(yTrue, yPred []int, sensitive domain.SensitiveTable) (float64, error) {
	s, err := gapFromPredictions(yTrue, yPred, sensitive, metrics.NameSelectionRate)
	return s.Ratio, err
}

// EqualOpportunityDifference computes the true-positive-rate difference directly.
func EqualOpportunityDifference(yTrue, yPred []int, sensitive domain.SensitiveTable) (float64, error) {
	s, err := gapFromPredictions(yTrue, yPred, sensitive, metrics.NameTruePositiveRate)
	return s.Difference, err
}

func gapFromPredictions(yTrue, yPred []int, sensitive domain.SensitiveTable, metric string) (domain.GapSummary, error) {
	res, err := metrics.EvaluateNamed(yTrue, yPred, sensitive, []string{metric})
	if err != nil {
		return domain.GapSummary{}, err
	}
	return Gap(res, metric)
}

// Summarize computes the standard gaps available in a result. Metrics missing
// from the result are skipped; failed computations are recorded in Errors
// without affecting the others.
func Summarize(result *domain.MetricResult) domain.FairnessSummary {
	var sum domain.FairnessSummary
	record := func(name string, err error) {
		if sum.Errors == nil {
			sum.Errors = make(map[string]string)
		}
		sum.Errors[name] = err.Error()
	}

	if _, ok := result.Overall[metrics.NameSelectionRate]; ok {
		if s, err := DemographicParity(result); err != nil {
			record("demographic_parity", err)
		} else {
			sum.DemographicParity = &s
		}
	}
	if _, ok := result.Overall[metrics.NameTruePositiveRate]; ok {
		if s, err := EqualOpportunity(result); err != nil {
			record("equal_opportunity", err)
		} else {
			sum.EqualOpportunity = &s
		}
	}
	return sum
}
