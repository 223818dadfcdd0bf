// Package report renders audit results. It only formats what the evaluator
// already computed and never recomputes a metric.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/ahrav/go-fairness/internal/domain"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

const missing = "-"

func formatValue(v float64, ok bool) string {
	if !ok {
		return missing
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// WriteTable writes a side-by-side text comparison: overall metrics, each
// metric by group, the fairness gaps and the mitigation outcome.
func WriteTable(w io.Writer, c *domain.Comparison) error {
	if c == nil || c.Baseline.Metrics == nil || c.Mitigated.Metrics == nil {
		return fmt.Errorf("%w: comparison has no metrics", domain.ErrInvalidRequest)
	}
	base, mit := c.Baseline.Metrics, c.Mitigated.Metrics
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "OVERALL\tbaseline\tmitigated")
	for _, m := range base.Metrics {
		b, bok := base.Overall[m]
		v, vok := mit.Overall[m]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m, formatValue(b, bok), formatValue(v, vok))
	}

	for _, m := range base.Metrics {
		fmt.Fprintf(tw, "\nBY GROUP: %s\tcount\tbaseline\tmitigated\n", m)
		for _, g := range base.Groups {
			b, bok := base.Value(g, m)
			v, vok := mit.Value(g, m)
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", g, base.Counts[g], formatValue(b, bok), formatValue(v, vok))
		}
	}

	fmt.Fprintln(tw, "\nFAIRNESS\tbaseline\tmitigated")
	bf, mf := c.Baseline.Fairness, c.Mitigated.Fairness
	for _, row := range []struct {
		name string
		pick func(domain.FairnessSummary) (float64, bool)
	}{
		{"demographic_parity_difference", func(s domain.FairnessSummary) (float64, bool) {
			if s.DemographicParity == nil {
				return 0, false
			}
			return s.DemographicParity.Difference, true
		}},
		{"demographic_parity_ratio", func(s domain.FairnessSummary) (float64, bool) {
			if s.DemographicParity == nil {
				return 0, false
			}
			return s.DemographicParity.Ratio, true
		}},
		{"equal_opportunity_difference", func(s domain.FairnessSummary) (float64, bool) {
			if s.EqualOpportunity == nil {
				return 0, false
			}
			return s.EqualOpportunity.Difference, true
		}},
	} {
		b, bok := row.pick(bf)
		v, vok := row.pick(mf)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.name, formatValue(b, bok), formatValue(v, vok))
	}

	s := c.Mitigation
	fmt.Fprintln(tw, "\nMITIGATION\t")
	fmt.Fprintf(tw, "constraint\t%s\n", s.Constraint)
	fmt.Fprintf(tw, "state\t%s\n", s.State)
	fmt.Fprintf(tw, "verified\t%t\n", s.Verified)
	fmt.Fprintf(tw, "rounds\t%d (best %d, %d candidates)\n", s.Rounds, s.BestRound, s.Candidates)
	fmt.Fprintf(tw, "max_violation\t%s\n", formatValue(s.MaxViolation, true))
	fmt.Fprintf(tw, "gap\t%s\n", formatValue(s.Gap, true))
	if s.Warning != "" {
		fmt.Fprintf(tw, "warning\t%s\n", s.Warning)
	}
	return tw.Flush()
}
