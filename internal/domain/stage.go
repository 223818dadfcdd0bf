package domain

import "fmt"

// PrepareDatasetInput asks the prepare stage to load, encode and split data.
type PrepareDatasetInput struct {
	AuditID string      `json:"audit_id" validate:"required"`
	Dataset DatasetSpec `json:"dataset" validate:"required"`
}

// Validate checks the input.
func (in *PrepareDatasetInput) Validate() error { return validateStage(in) }

// PrepareDatasetOutput references the stored train/test splits.
type PrepareDatasetOutput struct {
	DatasetRef    ArtifactRef `json:"dataset_ref" validate:"required"`
	TrainExamples int         `json:"train_examples" validate:"min=1"`
	TestExamples  int         `json:"test_examples" validate:"min=1"`
	FeatureNames  []string    `json:"feature_names" validate:"min=1"`
	Groups        []GroupKey  `json:"groups"`
}

// TrainBaselineInput trains the unconstrained model on the train split.
type TrainBaselineInput struct {
	AuditID    string       `json:"audit_id" validate:"required"`
	DatasetRef ArtifactRef  `json:"dataset_ref" validate:"required"`
	Oracle     OracleConfig `json:"oracle" validate:"required"`
	Seed       int64        `json:"seed"`
}

// Validate checks the input.
func (in *TrainBaselineInput) Validate() error { return validateStage(in) }

// TrainMitigatedInput runs the reduction on the train split.
type TrainMitigatedInput struct {
	AuditID        string          `json:"audit_id" validate:"required"`
	DatasetRef     ArtifactRef     `json:"dataset_ref" validate:"required"`
	Oracle         OracleConfig    `json:"oracle" validate:"required"`
	Reduction      ReductionConfig `json:"reduction" validate:"required"`
	PredictionMode PredictionMode  `json:"prediction_mode" validate:"required,oneof=deterministic stochastic"`
}

// Validate checks the input, including the reduction settings.
func (in *TrainMitigatedInput) Validate() error {
	if err := validateStage(in); err != nil {
		return err
	}
	return in.Reduction.Validate()
}

// TrainModelOutput references a stored model. Mitigation is set only for
// the mitigated model.
type TrainModelOutput struct {
	Model      string             `json:"model" validate:"required,oneof=baseline mitigated"`
	ModelRef   ArtifactRef        `json:"model_ref" validate:"required"`
	Mitigation *MitigationSummary `json:"mitigation,omitempty"`
}

// EvaluateModelInput scores a stored model on the test split.
type EvaluateModelInput struct {
	AuditID    string      `json:"audit_id" validate:"required"`
	Model      string      `json:"model" validate:"required,oneof=baseline mitigated"`
	ModelRef   ArtifactRef `json:"model_ref" validate:"required"`
	DatasetRef ArtifactRef `json:"dataset_ref" validate:"required"`
	Metrics    []string    `json:"metrics" validate:"required,min=1,dive,required"`
}

// Validate checks the input.
func (in *EvaluateModelInput) Validate() error { return validateStage(in) }

func validateStage(in any) error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}
