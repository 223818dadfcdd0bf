// Package audit implements the Temporal activities of a fairness audit:
// prepare the dataset, train the baseline, train the mitigated model, and
// evaluate a model. Stages hand each other artifact references; datasets and
// models live in the blob store.
package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahrav/go-fairness/internal/dataset"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/evaluator"
	"github.com/ahrav/go-fairness/internal/reductions"
	"github.com/ahrav/go-fairness/internal/store"
	"github.com/ahrav/go-fairness/pkg/activity"
)

// Activities handles the audit's Temporal activities. Each method can also
// be called directly, outside a worker, as the local pipeline does.
type Activities struct {
	activity.BaseActivities
	datasets *store.DatasetStore
	models   *store.ModelStore
	events   *EventEmitter
	logger   *slog.Logger
}

// NewActivities creates audit activities over blobs. The logger receives
// reduction progress; nil uses slog.Default.
func NewActivities(base activity.BaseActivities, blobs store.BlobStore, logger *slog.Logger) *Activities {
	if logger == nil {
		logger = slog.Default()
	}
	return &Activities{
		BaseActivities: base,
		datasets:       store.NewDatasetStore(blobs),
		models:         store.NewModelStore(blobs),
		events:         NewEventEmitter(base),
		logger:         logger.With("component", "audit"),
	}
}

// PrepareDataset loads the configured data, splits it stratified by label,
// encodes and scales both splits with train statistics, and stores them.
func (a *Activities) PrepareDataset(
	ctx context.Context,
	input domain.PrepareDatasetInput,
) (*domain.PrepareDatasetOutput, error) {
	const name = "PrepareDataset"
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(name, err, "invalid input")
	}

	wfCtx := a.GetWorkflowContext(ctx)
	activity.SafeLog(ctx, "Starting PrepareDataset activity",
		"workflow_id", wfCtx.WorkflowID,
		"activity_id", wfCtx.ActivityID,
		"source", input.Dataset.Source)

	splits, err := dataset.LoadAndPrepare(input.Dataset)
	if err != nil {
		return nil, toApplicationError(name, err, "prepare dataset")
	}
	ref, err := a.datasets.Save(ctx, splits)
	if err != nil {
		return nil, toApplicationError(name, err, "store dataset")
	}

	out := &domain.PrepareDatasetOutput{
		DatasetRef:    ref,
		TrainExamples: splits.Train.Len(),
		TestExamples:  splits.Test.Len(),
		FeatureNames:  splits.Train.FeatureNames,
		Groups:        splits.Train.Sensitive.Groups(),
	}
	activity.SafeLog(ctx, "PrepareDataset completed",
		"dataset_key", ref.Key,
		"train", out.TrainExamples,
		"test", out.TestExamples,
		"features", len(out.FeatureNames))
	return out, nil
}

// TrainBaseline fits the unconstrained logistic model on the train split.
func (a *Activities) TrainBaseline(
	ctx context.Context,
	input domain.TrainBaselineInput,
) (*domain.TrainModelOutput, error) {
	const name = "TrainBaseline"
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(name, err, "invalid input")
	}
	wfCtx := a.GetWorkflowContext(ctx)

	splits, err := a.datasets.Load(ctx, input.DatasetRef)
	if err != nil {
		return nil, toApplicationError(name, err, "load dataset")
	}
	model, err := evaluator.TrainBaseline(splits.Train, input.Oracle, input.Seed)
	if err != nil {
		return nil, toApplicationError(name, err, "train baseline")
	}
	ref, err := a.models.Save(ctx, model)
	if err != nil {
		return nil, toApplicationError(name, err, "store model")
	}

	a.events.EmitModelTrained(ctx, wfCtx, input.AuditID, domain.ModelTrainedPayload{
		Model:    domain.ModelBaseline,
		ModelKey: ref.Key,
		Examples: splits.Train.Len(),
		Features: splits.Train.Width(),
	})
	return &domain.TrainModelOutput{Model: domain.ModelBaseline, ModelRef: ref}, nil
}

// TrainMitigated runs the exponentiated-gradient reduction on the train
// split and stores the resulting randomized predictor.
//
// An oracle failure after at least one round still stores the partial
// mixture and succeeds with a summary in the failed state; callers must
// check Mitigation.State and Mitigation.Verified. A failure before any
// candidate exists is returned as a non-retryable oracle error.
func (a *Activities) TrainMitigated(
	ctx context.Context,
	input domain.TrainMitigatedInput,
) (*domain.TrainModelOutput, error) {
	const name = "TrainMitigated"
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(name, err, "invalid input")
	}
	wfCtx := a.GetWorkflowContext(ctx)

	splits, err := a.datasets.Load(ctx, input.DatasetRef)
	if err != nil {
		return nil, toApplicationError(name, err, "load dataset")
	}

	activity.SafeLog(ctx, "Starting reduction",
		"workflow_id", wfCtx.WorkflowID,
		"constraint", input.Reduction.Constraint,
		"epsilon", input.Reduction.Epsilon,
		"max_iter", input.Reduction.MaxIter)

	res, fitErr := evaluator.TrainMitigated(ctx, splits.Train, input.Oracle, input.Reduction, input.PredictionMode,
		a.logger, reductions.WithRoundHook(func(s reductions.RoundStats) {
			a.RecordHeartbeat(ctx, s.Round)
		}))
	if fitErr != nil && (res == nil || res.Predictor == nil || !errors.Is(fitErr, domain.ErrOracleFit)) {
		if res != nil {
			a.events.EmitMitigationCompleted(ctx, wfCtx, input.AuditID, res.Summary, "")
		}
		return nil, toApplicationError(name, fitErr, "reduction failed")
	}

	summary := res.Summary
	if fitErr != nil && summary.Warning == "" {
		summary.Warning = fitErr.Error()
	}

	ref, err := a.models.Save(ctx, res.Predictor)
	if err != nil {
		return nil, toApplicationError(name, err, "store model")
	}

	a.events.EmitMitigationCompleted(ctx, wfCtx, input.AuditID, summary, ref.Key)
	a.events.EmitModelTrained(ctx, wfCtx, input.AuditID, domain.ModelTrainedPayload{
		Model:    domain.ModelMitigated,
		ModelKey: ref.Key,
		Examples: splits.Train.Len(),
		Features: splits.Train.Width(),
	})
	activity.SafeLog(ctx, "TrainMitigated completed",
		"state", summary.State,
		"verified", summary.Verified,
		"rounds", summary.Rounds,
		"candidates", summary.Candidates)
	return &domain.TrainModelOutput{Model: domain.ModelMitigated, ModelRef: ref, Mitigation: &summary}, nil
}

// EvaluateModel computes grouped metrics and fairness gaps of a stored model
// on the test split. Gaps that cannot be computed are recorded on the
// evaluation rather than failing the activity.
func (a *Activities) EvaluateModel(
	ctx context.Context,
	input domain.EvaluateModelInput,
) (*domain.ModelEvaluation, error) {
	const name = "EvaluateModel"
	if err := input.Validate(); err != nil {
		return nil, nonRetryable(name, err, "invalid input")
	}
	wfCtx := a.GetWorkflowContext(ctx)

	splits, err := a.datasets.Load(ctx, input.DatasetRef)
	if err != nil {
		return nil, toApplicationError(name, err, "load dataset")
	}
	model, err := a.models.Load(ctx, input.ModelRef)
	if err != nil {
		return nil, toApplicationError(name, err, "load model")
	}

	eval, err := evaluator.EvaluateModel(input.Model, model, splits.Test, input.Metrics)
	if err != nil {
		return nil, toApplicationError(name, err, "evaluate model")
	}
	eval.ModelRef = input.ModelRef

	a.events.EmitModelEvaluated(ctx, wfCtx, input.AuditID, &eval)
	activity.SafeLog(ctx, "EvaluateModel completed",
		"model", input.Model,
		"groups", len(eval.Metrics.Groups),
		"gap_errors", len(eval.Fairness.Errors))
	return &eval, nil
}
