package domain

import "maps"

// MetricResult is the stable contract between the grouped-metric engine and
// any consumer. Overall values are computed over the full data regardless of
// grouping; ByGroup has exactly one entry per GroupKey present in the
// evaluated sensitive table.
type MetricResult struct {
	Overall map[string]float64              `json:"overall"`
	ByGroup map[GroupKey]map[string]float64 `json:"by_group"`

	// Groups lists the ByGroup keys in canonical order.
	Groups []GroupKey `json:"groups"`

	// Metrics lists metric names in sorted order.
	Metrics []string `json:"metrics"`

	// Counts holds the number of examples in each group.
	Counts map[GroupKey]int `json:"counts"`

	// Total is the number of evaluated examples.
	Total int `json:"total"`
}

// Value returns a per-group metric value.
func (r *MetricResult) Value(group GroupKey, metric string) (float64, bool) {
	row, ok := r.ByGroup[group]
	if !ok {
		return 0, false
	}
	v, ok := row[metric]
	return v, ok
}

// Column returns one metric across all groups.
func (r *MetricResult) Column(metric string) map[GroupKey]float64 {
	out := make(map[GroupKey]float64, len(r.ByGroup))
	for g, row := range r.ByGroup {
		if v, ok := row[metric]; ok {
			out[g] = v
		}
	}
	return out
}

// Clone returns a deep copy.
func (r *MetricResult) Clone() *MetricResult {
	out := &MetricResult{
		Overall: maps.Clone(r.Overall),
		ByGroup: make(map[GroupKey]map[string]float64, len(r.ByGroup)),
		Groups:  append([]GroupKey(nil), r.Groups...),
		Metrics: append([]string(nil), r.Metrics...),
		Counts:  maps.Clone(r.Counts),
		Total:   r.Total,
	}
	for g, row := range r.ByGroup {
		out.ByGroup[g] = maps.Clone(row)
	}
	return out
}

// GapSummary is a difference/ratio summary of one metric across groups.
type GapSummary struct {
	Metric     string   `json:"metric"`
	Difference float64  `json:"difference"`
	Ratio      float64  `json:"ratio"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
	MinGroup   GroupKey `json:"min_group"`
	MaxGroup   GroupKey `json:"max_group"`
}

// FairnessSummary collects the standard gap summaries of one model. A gap
// that could not be computed is absent and its error is recorded in Errors.
type FairnessSummary struct {
	DemographicParity *GapSummary       `json:"demographic_parity,omitempty"`
	EqualOpportunity  *GapSummary       `json:"equal_opportunity,omitempty"`
	Errors            map[string]string `json:"errors,omitempty"`
}
