package domain

// ArtifactKind represents the type of content stored in an artifact.
// Using typed constants instead of raw strings provides compile-time safety
// and prevents typos that could bypass validation.
type ArtifactKind string

const (
	// ArtifactModel represents a serialized predictor.
	ArtifactModel ArtifactKind = "model"

	// ArtifactDataset represents an encoded train/test split.
	ArtifactDataset ArtifactKind = "dataset"
)

// ArtifactRef represents a reference to content stored in the blob store.
// Pipeline stages hand each other refs instead of the (large) datasets and
// models themselves.
type ArtifactRef struct {
	// Key is the unique identifier for the stored artifact (e.g., "models/<uuid>.json").
	// Can be empty when the ArtifactRef is not used (i.e., when IsZero() returns true).
	Key string `json:"key" validate:"required_with=Kind"`

	// Size is the size of the stored content in bytes.
	Size int64 `json:"size" validate:"min=0"`

	// Kind categorizes the type of content stored.
	Kind ArtifactKind `json:"kind" validate:"required_with=Key,omitempty,oneof=model dataset"`
}

// Validate checks if the artifact reference meets all requirements.
// Returns nil if valid, or a validation error describing the first constraint violation.
func (a ArtifactRef) Validate() error { return validate.Struct(a) }

// IsZero reports whether the artifact reference has no meaningful value set.
func (a ArtifactRef) IsZero() bool { return a.Key == "" && a.Size == 0 && a.Kind == "" }
