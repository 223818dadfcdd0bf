// Package domain provides the core types shared by the fairness audit: group
// identities, datasets, metric results, reduction configuration, audit
// requests and reports, and the error taxonomy. The types are designed to be
// serializable so they can cross Temporal activity boundaries unchanged.
package domain

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// DatasetSource selects where an audit reads its data from.
type DatasetSource string

const (
	// SourceCSV reads a headed CSV file.
	SourceCSV DatasetSource = "csv"

	// SourceSynthetic generates a deterministic synthetic dataset.
	SourceSynthetic DatasetSource = "synthetic"
)

// Default audit values.
const (
	DefaultTestFraction = 0.2
	defaultSyntheticN   = 2000
)

// DatasetSpec describes how the prepare stage obtains and splits data.
type DatasetSpec struct {
	Source DatasetSource `json:"source" validate:"required,oneof=csv synthetic"`

	// Path is the CSV location for SourceCSV.
	Path string `json:"path" validate:"required_if=Source csv"`

	// LabelColumn names the target column for SourceCSV.
	LabelColumn string `json:"label_column" validate:"required_if=Source csv"`

	// PositiveLabel is the raw label value mapped to 1 (e.g. ">50K").
	// Empty means the label column is already numeric 0/1.
	PositiveLabel string `json:"positive_label,omitempty"`

	// SensitiveColumns name the attributes whose value tuple forms a GroupKey.
	SensitiveColumns []string `json:"sensitive_columns" validate:"required_if=Source csv,dive,required"`

	// DropFirst drops the first level of each one-hot encoded column.
	DropFirst bool `json:"drop_first"`

	// TestFraction is the stratified hold-out share.
	TestFraction float64 `json:"test_fraction" validate:"gt=0,lt=1"`

	// SyntheticSize is the number of generated examples for SourceSynthetic.
	SyntheticSize int `json:"synthetic_size" validate:"min=0"`

	// Seed drives the split and the synthetic generator.
	Seed int64 `json:"seed"`
}

// DefaultDatasetSpec returns a synthetic dataset spec.
func DefaultDatasetSpec() DatasetSpec {
	return DatasetSpec{
		Source:        SourceSynthetic,
		TestFraction:  DefaultTestFraction,
		SyntheticSize: defaultSyntheticN,
		Seed:          DefaultSeed,
		DropFirst:     true,
	}
}

// AuditRequest initiates one fairness audit: prepare data, train a baseline,
// evaluate it, train a mitigated predictor, and evaluate that.
type AuditRequest struct {
	// ID uniquely identifies this audit using UUID format.
	ID string `json:"id" validate:"required,uuid"`

	Dataset   DatasetSpec     `json:"dataset" validate:"required"`
	Baseline  OracleConfig    `json:"baseline" validate:"required"`
	Reduction ReductionConfig `json:"reduction" validate:"required"`

	// Metrics names the metric set applied to both models.
	Metrics []string `json:"metrics" validate:"required,min=1,dive,required"`

	// PredictionMode selects how the mitigated predictor is evaluated.
	PredictionMode PredictionMode `json:"prediction_mode" validate:"required,oneof=deterministic stochastic"`

	// Metadata contains optional key-value pairs for tracking and auditing.
	Metadata map[string]string `json:"metadata,omitempty"`

	// RequestedAt records when this audit request was created.
	RequestedAt time.Time `json:"requested_at" validate:"required"`
}

// DefaultMetrics is the metric set used by the original audit dashboard.
var DefaultMetrics = []string{"accuracy", "f1", "precision", "recall", "selection_rate", "tpr"}

// NewAuditRequest creates a request with a generated ID and the current time.
//
// WARNING: Do not call this function inside workflows as it uses
// nondeterministic operations (uuid.New() and time.Now()).
// Use MakeAuditRequest instead for workflow-safe operations.
func NewAuditRequest(spec DatasetSpec, baseline OracleConfig, reduction ReductionConfig, metrics []string) (*AuditRequest, error) {
	return MakeAuditRequest(uuid.New().String(), time.Now(), spec, baseline, reduction, metrics)
}

// MakeAuditRequest creates a request with the provided ID and timestamp.
func MakeAuditRequest(
	id string,
	requestedAt time.Time,
	spec DatasetSpec,
	baseline OracleConfig,
	reduction ReductionConfig,
	metrics []string,
) (*AuditRequest, error) {
	req := &AuditRequest{
		ID:             id,
		Dataset:        spec,
		Baseline:       baseline,
		Reduction:      reduction,
		Metrics:        append([]string(nil), metrics...),
		PredictionMode: PredictDeterministic,
		Metadata:       make(map[string]string),
		RequestedAt:    requestedAt,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the request and its nested configurations.
func (r *AuditRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if err := r.Reduction.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// WithMeta returns a copy of the request with the metadata key set.
func (r *AuditRequest) WithMeta(key, value string) *AuditRequest {
	md := maps.Clone(r.Metadata)
	if md == nil {
		md = make(map[string]string)
	}
	md[key] = value
	cp := *r
	cp.Metadata = md
	return &cp
}
