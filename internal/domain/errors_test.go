package domain //nolint:testpackage // Need access to unexported validate

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedErrors_MatchSentinels(t *testing.T) {
	cause := errors.New("singular hessian")

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"shape", &ShapeMismatchError{Field: "labels", Want: 3, Got: 2}, ErrShapeMismatch},
		{"groups", &InsufficientGroupsError{Metric: "selection_rate", Groups: 1}, ErrInsufficientGroups},
		{"oracle", &OracleFitError{Round: 4, Cause: cause}, ErrOracleFit},
		{"convergence", &NonConvergenceWarning{Rounds: 50, Reason: "max_iter"}, ErrNonConvergence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("stage: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestOracleFitError_Unwrap(t *testing.T) {
	cause := errors.New("nan loss")
	err := &OracleFitError{Round: 2, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "round 2")
}

func TestCheckLength(t *testing.T) {
	require.NoError(t, CheckLength("labels", 4, 4))

	err := CheckLength("labels", 4, 3)
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, "shape mismatch: labels has length 3, want 4", err.Error())
}

func TestNonConvergenceWarning_Message(t *testing.T) {
	w := &NonConvergenceWarning{Rounds: 10, MaxViolation: 0.05, Epsilon: 0.01, Gap: 0.2, Reason: "max_iter"}
	assert.Contains(t, w.Error(), "after 10 rounds (max_iter)")
	assert.Contains(t, w.Error(), "max violation 0.0500")
}
