package domain

import (
	"fmt"
	"time"
)

// ConstraintKind names a predefined fairness moment.
type ConstraintKind string

const (
	// ConstraintDemographicParity equalises predicted-positive rates across groups.
	ConstraintDemographicParity ConstraintKind = "demographic_parity"

	// ConstraintTruePositiveRateParity equalises true-positive rates across groups.
	ConstraintTruePositiveRateParity ConstraintKind = "true_positive_rate_parity"
)

// String returns the string representation of the constraint kind.
func (c ConstraintKind) String() string { return string(c) }

// ReductionState is the lifecycle state of one reduction run.
type ReductionState string

const (
	// ReductionInitialized is the state before the first round.
	ReductionInitialized ReductionState = "initialized"

	// ReductionIterating is the state while rounds are being played.
	ReductionIterating ReductionState = "iterating"

	// ReductionConverged is the terminal state after a normal stop: targets
	// met, iteration cap exhausted, or deadline reached. Whether the targets
	// were met is reported separately as Verified.
	ReductionConverged ReductionState = "converged"

	// ReductionFailed is the terminal state after an oracle failure.
	ReductionFailed ReductionState = "failed"
)

// PredictionMode selects how a randomized predictor answers queries.
type PredictionMode string

const (
	// PredictDeterministic averages candidate outputs by mixture weight and
	// thresholds at 0.5.
	PredictDeterministic PredictionMode = "deterministic"

	// PredictStochastic samples one candidate per example per call. The
	// fairness guarantee of the reduction holds for this policy.
	PredictStochastic PredictionMode = "stochastic"
)

// Default reduction parameters.
const (
	DefaultEpsilon  = 0.01
	DefaultMaxIter  = 50
	DefaultMinIter  = 5
	DefaultEta0     = 2.0
	DefaultSeed     = 42
	defaultOracleLR = 0.5

	defaultOracleEpochs = 300
	defaultOracleL2     = 1e-4
)

// ReductionConfig parameterises the exponentiated-gradient reduction.
type ReductionConfig struct {
	// Constraint selects the fairness moment.
	Constraint ConstraintKind `json:"constraint" validate:"required,oneof=demographic_parity true_positive_rate_parity"`

	// Epsilon is the allowed constraint slack.
	Epsilon float64 `json:"epsilon" validate:"finite,min=0"`

	// MaxIter caps the number of rounds.
	MaxIter int `json:"max_iter" validate:"min=1"`

	// MinIter is the number of rounds played before convergence may be declared.
	MinIter int `json:"min_iter" validate:"min=0"`

	// Bound is the dual budget B. Zero means 1/Epsilon.
	Bound float64 `json:"bound" validate:"finite,min=0"`

	// Eta0 is the initial learning-rate multiplier; the rate starts at Eta0/B
	// and shrinks when the duality gap stalls.
	Eta0 float64 `json:"eta0" validate:"finite,gt=0"`

	// Tolerance is the duality-gap target ν. Zero derives it from the first
	// round's absolute error.
	Tolerance float64 `json:"tolerance" validate:"finite,min=0"`

	// Seed drives oracle initialisation and stochastic prediction.
	Seed int64 `json:"seed"`

	// MaxDuration bounds wall-clock time; checked once per round. Zero disables.
	MaxDuration time.Duration `json:"max_duration" validate:"min=0"`
}

// DefaultReductionConfig returns demographic parity with library defaults.
func DefaultReductionConfig() ReductionConfig {
	return ReductionConfig{
		Constraint: ConstraintDemographicParity,
		Epsilon:    DefaultEpsilon,
		MaxIter:    DefaultMaxIter,
		MinIter:    DefaultMinIter,
		Eta0:       DefaultEta0,
		Seed:       DefaultSeed,
	}
}

// Validate checks field constraints and that a dual budget can be derived.
func (c ReductionConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Bound == 0 && c.Epsilon == 0 {
		return fmt.Errorf("%w: bound must be set when epsilon is zero", ErrInvalidConfig)
	}
	return nil
}

// EffectiveBound returns B, defaulting to 1/Epsilon.
func (c ReductionConfig) EffectiveBound() float64 {
	if c.Bound > 0 {
		return c.Bound
	}
	return 1 / c.Epsilon
}

// OracleConfig parameterises the logistic-regression base learner.
type OracleConfig struct {
	LearningRate float64 `json:"learning_rate" validate:"finite,gt=0"`
	Epochs       int     `json:"epochs" validate:"min=1"`
	L2           float64 `json:"l2" validate:"finite,min=0"`
}

// DefaultOracleConfig returns settings suited to standardised features.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{LearningRate: defaultOracleLR, Epochs: defaultOracleEpochs, L2: defaultOracleL2}
}

// Validate checks the oracle configuration.
func (c OracleConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// MitigationSummary reports how a reduction run ended.
type MitigationSummary struct {
	Constraint   ConstraintKind `json:"constraint"`
	State        ReductionState `json:"state"`
	Verified     bool           `json:"verified"`
	Rounds       int            `json:"rounds"`
	BestRound    int            `json:"best_round"`
	Candidates   int            `json:"candidates"`
	MaxViolation float64        `json:"max_violation"`
	Error        float64        `json:"error"`
	Gap          float64        `json:"gap"`
	Warning      string         `json:"warning,omitempty"`
}
