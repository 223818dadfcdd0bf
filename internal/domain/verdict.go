package domain

import "time"

// Model roles compared by an audit.
const (
	ModelBaseline  = "baseline"
	ModelMitigated = "mitigated"
)

// ModelEvaluation is the grouped-metric and gap evaluation of one model.
type ModelEvaluation struct {
	Model    string          `json:"model" validate:"required,oneof=baseline mitigated"`
	ModelRef ArtifactRef     `json:"model_ref,omitzero"`
	Metrics  *MetricResult   `json:"metrics" validate:"required"`
	Fairness FairnessSummary `json:"fairness"`
}

// Comparison holds the baseline and mitigated evaluations, computed with the
// same metric set and GroupKey ordering.
type Comparison struct {
	Baseline   ModelEvaluation   `json:"baseline"`
	Mitigated  ModelEvaluation   `json:"mitigated"`
	Mitigation MitigationSummary `json:"mitigation"`
}

// AuditReport is the final output of an audit workflow.
type AuditReport struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
	Comparison
	StartedAt   time.Time `json:"started_at" validate:"required"`
	CompletedAt time.Time `json:"completed_at" validate:"required"`
}

// Validate checks the report.
func (r *AuditReport) Validate() error { return validate.Struct(r) }

// Duration returns the wall-clock span of the audit.
func (r *AuditReport) Duration() time.Duration { return r.CompletedAt.Sub(r.StartedAt) }

// DemographicParityImproved reports whether the mitigated model narrowed the
// demographic-parity difference. False when either side could not be computed.
func (c *Comparison) DemographicParityImproved() bool {
	b, m := c.Baseline.Fairness.DemographicParity, c.Mitigated.Fairness.DemographicParity
	if b == nil || m == nil {
		return false
	}
	return m.Difference < b.Difference
}
