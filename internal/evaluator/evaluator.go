// Package evaluator trains a baseline and a fairness-mitigated model and
// evaluates both with the same metric set on the same data, so their grouped
// results line up group for group.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahrav/go-fairness/internal/classifier"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/fairness"
	"github.com/ahrav/go-fairness/internal/metrics"
	"github.com/ahrav/go-fairness/internal/reductions"
)

// Config selects the models and metrics of a comparison.
type Config struct {
	Baseline       domain.OracleConfig
	Reduction      domain.ReductionConfig
	Metrics        []string
	PredictionMode domain.PredictionMode
}

// DefaultConfig returns the library defaults with the standard metric set.
func DefaultConfig() Config {
	return Config{
		Baseline:       domain.DefaultOracleConfig(),
		Reduction:      domain.DefaultReductionConfig(),
		Metrics:        domain.DefaultMetrics,
		PredictionMode: domain.PredictDeterministic,
	}
}

// TrainBaseline fits an unconstrained logistic model.
func TrainBaseline(ds *domain.Dataset, cfg domain.OracleConfig, seed int64) (*classifier.LogisticRegression, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	m := classifier.NewLogisticRegression(cfg, seed)
	if err := m.Fit(ds.Features, ds.Labels, nil); err != nil {
		return nil, fmt.Errorf("train baseline: %w", err)
	}
	return m, nil
}

// TrainMitigated runs the exponentiated-gradient reduction with logistic
// oracles. On oracle failure the partial result, when one exists, is
// returned together with the error. Extra opts are applied after the
// logger and prediction mode.
func TrainMitigated(
	ctx context.Context,
	ds *domain.Dataset,
	oracle domain.OracleConfig,
	cfg domain.ReductionConfig,
	mode domain.PredictionMode,
	logger *slog.Logger,
	opts ...reductions.Option,
) (*reductions.Result, error) {
	constraint, err := reductions.NewConstraint(cfg.Constraint)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]reductions.Option{reductions.WithLogger(logger), reductions.WithPredictionMode(mode)}, opts...)
	eg, err := reductions.NewExponentiatedGradient(constraint, classifier.LogisticFactory(oracle), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return eg.Fit(ctx, ds)
}

// EvaluateModel computes grouped metrics and fairness gaps of one predictor.
// Gaps that cannot be computed are recorded on the summary, not returned.
func EvaluateModel(model string, p classifier.Predictor, ds *domain.Dataset, names []string) (domain.ModelEvaluation, error) {
	if err := ds.Validate(); err != nil {
		return domain.ModelEvaluation{}, err
	}
	pred := p.Predict(ds.Features)
	res, err := metrics.EvaluateNamed(ds.Labels, pred, ds.Sensitive, names)
	if err != nil {
		return domain.ModelEvaluation{}, fmt.Errorf("evaluate %s: %w", model, err)
	}
	return domain.ModelEvaluation{Model: model, Metrics: res, Fairness: fairness.Summarize(res)}, nil
}

// Evaluator runs baseline and mitigated training followed by evaluation.
type Evaluator struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an Evaluator after validating cfg.
func New(cfg Config, logger *slog.Logger) (*Evaluator, error) {
	if err := cfg.Baseline.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Reduction.Validate(); err != nil {
		return nil, err
	}
	if _, err := metrics.Lookup(cfg.Metrics...); err != nil {
		return nil, err
	}
	if len(cfg.Metrics) == 0 {
		return nil, fmt.Errorf("%w: no metrics configured", domain.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{cfg: cfg, logger: logger.With("component", "evaluator")}, nil
}

// Compare trains both models on train and evaluates them on test.
//
// When the reduction fails after producing candidates, the comparison is
// still returned, built from the partial mixture, alongside the
// OracleFitError.
func (e *Evaluator) Compare(ctx context.Context, train, test *domain.Dataset) (*domain.Comparison, error) {
	if err := test.Validate(); err != nil {
		return nil, err
	}
	if train.Width() != test.Width() {
		return nil, &domain.ShapeMismatchError{Field: "test features", Want: train.Width(), Got: test.Width()}
	}

	base, err := TrainBaseline(train, e.cfg.Baseline, e.cfg.Reduction.Seed)
	if err != nil {
		return nil, err
	}
	baseEval, err := EvaluateModel(domain.ModelBaseline, base, test, e.cfg.Metrics)
	if err != nil {
		return nil, err
	}
	e.logger.Info("baseline evaluated", "examples", test.Len(), "groups", len(baseEval.Metrics.Groups))

	res, fitErr := TrainMitigated(ctx, train, e.cfg.Baseline, e.cfg.Reduction, e.cfg.PredictionMode, e.logger)
	if fitErr != nil && (res == nil || res.Predictor == nil) {
		return nil, fitErr
	}
	if fitErr != nil && !errors.Is(fitErr, domain.ErrOracleFit) {
		return nil, fitErr
	}

	mitEval, err := EvaluateModel(domain.ModelMitigated, res.Predictor, test, e.cfg.Metrics)
	if err != nil {
		return nil, err
	}
	e.logger.Info("mitigated evaluated",
		"state", res.Summary.State, "verified", res.Summary.Verified, "rounds", res.Summary.Rounds)

	return &domain.Comparison{Baseline: baseEval, Mitigated: mitEval, Mitigation: res.Summary}, fitErr
}
