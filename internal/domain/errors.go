package domain

import (
	"errors"
	"fmt"
)

// Common errors returned by domain operations.
var (
	// ErrInvalidRequest indicates that an audit request contains invalid data.
	ErrInvalidRequest = errors.New("invalid audit request")

	// ErrInvalidConfig indicates that a reduction or oracle configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrShapeMismatch indicates that parallel inputs (features, labels,
	// predictions, sensitive rows) do not have aligned lengths or widths.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrNonBinaryLabel indicates a label or prediction outside {0, 1}.
	ErrNonBinaryLabel = errors.New("label is not binary")

	// ErrInsufficientGroups indicates that fewer than two groups with nonzero
	// support are available for a gap computation.
	ErrInsufficientGroups = errors.New("insufficient groups")

	// ErrOracleFit indicates that the base learner could not be fit.
	ErrOracleFit = errors.New("oracle fit failed")

	// ErrNonConvergence indicates that a reduction stopped without verifying
	// its constraint and optimality targets. It is a warning, not a failure.
	ErrNonConvergence = errors.New("reduction convergence not verified")

	// ErrInvalidMetric indicates a metric function produced a non-finite value.
	ErrInvalidMetric = errors.New("invalid metric value")

	// ErrUnknownMetric indicates a metric name with no registered function.
	ErrUnknownMetric = errors.New("unknown metric")

	// ErrInvalidArtifactKind indicates that the artifact kind is not valid for the operation.
	ErrInvalidArtifactKind = errors.New("invalid artifact kind")
)

// ShapeMismatchError reports misaligned input lengths. It is always fatal and
// is raised at the boundary where the mismatch is detected.
type ShapeMismatchError struct {
	Field string `json:"field"`
	Want  int    `json:"want"`
	Got   int    `json:"got"`
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s has length %d, want %d", e.Field, e.Got, e.Want)
}

// Is matches ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// CheckLength returns a ShapeMismatchError when got differs from want.
func CheckLength(field string, want, got int) error {
	if want != got {
		return &ShapeMismatchError{Field: field, Want: want, Got: got}
	}
	return nil
}

// InsufficientGroupsError reports a gap computation over fewer than two
// supported groups. Fatal to that computation only.
type InsufficientGroupsError struct {
	Metric string `json:"metric"`
	Groups int    `json:"groups"`
}

// Error implements the error interface.
func (e *InsufficientGroupsError) Error() string {
	return fmt.Sprintf("insufficient groups for %q: %d group(s) with support, need at least 2", e.Metric, e.Groups)
}

// Is matches ErrInsufficientGroups.
func (e *InsufficientGroupsError) Is(target error) bool { return target == ErrInsufficientGroups }

// OracleFitError wraps a base learner failure inside a reduction round.
type OracleFitError struct {
	Round int
	Cause error
}

// Error implements the error interface.
func (e *OracleFitError) Error() string {
	return fmt.Sprintf("oracle fit failed in round %d: %v", e.Round, e.Cause)
}

// Unwrap returns the underlying learner error.
func (e *OracleFitError) Unwrap() error { return e.Cause }

// Is matches ErrOracleFit.
func (e *OracleFitError) Is(target error) bool { return target == ErrOracleFit }

// NonConvergenceWarning describes a reduction that returned a best-effort
// predictor without meeting its epsilon/tolerance targets.
type NonConvergenceWarning struct {
	Rounds       int     `json:"rounds"`
	MaxViolation float64 `json:"max_violation"`
	Gap          float64 `json:"gap"`
	Epsilon      float64 `json:"epsilon"`
	Reason       string  `json:"reason"`
}

// Error implements the error interface.
func (w *NonConvergenceWarning) Error() string {
	return fmt.Sprintf("convergence not verified after %d rounds (%s): max violation %.4f (epsilon %.4f), gap %.4g",
		w.Rounds, w.Reason, w.MaxViolation, w.Epsilon, w.Gap)
}

// Is matches ErrNonConvergence.
func (w *NonConvergenceWarning) Is(target error) bool { return target == ErrNonConvergence }
