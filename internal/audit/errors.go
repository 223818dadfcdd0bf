package audit

import (
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/store"
)

// ErrorType categorizes activity failures for retry decisions. It is used
// as the Temporal application error type.
type ErrorType string

// Activity error types.
const (
	// ErrorValidation covers malformed inputs and configuration. Never retried.
	ErrorValidation ErrorType = "validation"

	// ErrorData covers datasets that cannot be used: misaligned shapes,
	// non-binary labels, too few groups, missing artifacts. Never retried.
	ErrorData ErrorType = "data"

	// ErrorOracle covers base learner failures. Never retried; the learner
	// is deterministic given its seed.
	ErrorOracle ErrorType = "oracle"

	// ErrorStore covers artifact store I/O. Retried.
	ErrorStore ErrorType = "store"
)

// NonRetryableTypes lists the error types the workflow retry policy skips.
var NonRetryableTypes = []string{string(ErrorValidation), string(ErrorData), string(ErrorOracle)}

// Classify maps an error onto an ErrorType.
func Classify(err error) ErrorType {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrInvalidConfig),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrInvalidArtifactKind),
		errors.Is(err, store.ErrArtifactKeyEmpty),
		errors.Is(err, store.ErrUnsupportedModel):
		return ErrorValidation
	case errors.Is(err, domain.ErrShapeMismatch),
		errors.Is(err, domain.ErrNonBinaryLabel),
		errors.Is(err, domain.ErrInsufficientGroups),
		errors.Is(err, domain.ErrInvalidMetric),
		errors.Is(err, store.ErrArtifactNotFound):
		return ErrorData
	case errors.Is(err, domain.ErrOracleFit),
		errors.Is(err, classifier.ErrDegenerateWeights):
		return ErrorOracle
	default:
		return ErrorStore
	}
}

// toApplicationError wraps err as a Temporal application error typed by
// Classify. Only ErrorStore failures stay retryable.
func toApplicationError(activityName string, err error, msg string) error {
	typ := Classify(err)
	full := fmt.Sprintf("%s: %s", activityName, msg)
	if typ == ErrorStore {
		return temporal.NewApplicationError(full, string(typ), err)
	}
	return temporal.NewNonRetryableApplicationError(full, string(typ), err)
}

// nonRetryable wraps an input validation failure.
func nonRetryable(activityName string, cause error, msg string) error {
	return temporal.NewNonRetryableApplicationError(
		fmt.Sprintf("%s: %s", activityName, msg), string(ErrorValidation), cause)
}
