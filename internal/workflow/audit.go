package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/ahrav/go-fairness/internal/audit"
	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/internal/pipeline"
)

// Activity timeouts.
const (
	defaultStageTimeout = 30 * time.Minute
	stageTimeoutSlack   = 5 * time.Minute
	heartbeatTimeout    = 2 * time.Minute
)

// stageTimeout bounds each activity. A reduction with MaxDuration gets that
// budget plus slack for the final evaluation and storage.
func stageTimeout(req domain.AuditRequest) time.Duration {
	if req.Reduction.MaxDuration > 0 {
		return req.Reduction.MaxDuration + stageTimeoutSlack
	}
	return defaultStageTimeout
}

// FairnessAuditWorkflow prepares the dataset, trains and evaluates the
// baseline, then trains and evaluates the mitigated model. Stages run in
// that fixed order; the first failing stage fails the workflow with its
// name. All workflow code must use workflow-safe APIs only.
func FairnessAuditWorkflow(ctx workflow.Context, req domain.AuditRequest) (*domain.AuditReport, error) {
	// Version gate enables safe evolution and backward compatibility.
	const currentVersion = 1
	_ = workflow.GetVersion(ctx, "fairness-audit.v", workflow.DefaultVersion, currentVersion)

	if err := req.Validate(); err != nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"invalid audit request",
			"Validation",
			err,
		)
	}

	startedAt := workflow.Now(ctx)
	logger := workflow.GetLogger(ctx)

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: stageTimeout(req),
		HeartbeatTimeout:    heartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: audit.NonRetryableTypes,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Method values on a nil receiver resolve activity names only.
	var a *audit.Activities

	run := func(stage string, activityFn, input, out any) error {
		logger.Info("stage started", "stage", stage)
		if err := workflow.ExecuteActivity(ctx, activityFn, input).Get(ctx, out); err != nil {
			logger.Error("stage failed", "stage", stage, "error", err)
			return &pipeline.StageError{Stage: stage, Err: err}
		}
		return nil
	}

	var prepared domain.PrepareDatasetOutput
	if err := run(pipeline.StagePrepareData, a.PrepareDataset,
		domain.PrepareDatasetInput{AuditID: req.ID, Dataset: req.Dataset}, &prepared); err != nil {
		return nil, err
	}

	var baseline domain.TrainModelOutput
	if err := run(pipeline.StageTrainBaseline, a.TrainBaseline, domain.TrainBaselineInput{
		AuditID:    req.ID,
		DatasetRef: prepared.DatasetRef,
		Oracle:     req.Baseline,
		Seed:       req.Reduction.Seed,
	}, &baseline); err != nil {
		return nil, err
	}

	var baseEval domain.ModelEvaluation
	if err := run(pipeline.StageEvaluateBaseline, a.EvaluateModel, domain.EvaluateModelInput{
		AuditID:    req.ID,
		Model:      baseline.Model,
		ModelRef:   baseline.ModelRef,
		DatasetRef: prepared.DatasetRef,
		Metrics:    req.Metrics,
	}, &baseEval); err != nil {
		return nil, err
	}

	var mitigated domain.TrainModelOutput
	if err := run(pipeline.StageTrainMitigated, a.TrainMitigated, domain.TrainMitigatedInput{
		AuditID:        req.ID,
		DatasetRef:     prepared.DatasetRef,
		Oracle:         req.Baseline,
		Reduction:      req.Reduction,
		PredictionMode: req.PredictionMode,
	}, &mitigated); err != nil {
		return nil, err
	}

	var mitEval domain.ModelEvaluation
	if err := run(pipeline.StageEvaluateMitigated, a.EvaluateModel, domain.EvaluateModelInput{
		AuditID:    req.ID,
		Model:      mitigated.Model,
		ModelRef:   mitigated.ModelRef,
		DatasetRef: prepared.DatasetRef,
		Metrics:    req.Metrics,
	}, &mitEval); err != nil {
		return nil, err
	}

	report := &domain.AuditReport{
		RequestID: req.ID,
		Comparison: domain.Comparison{
			Baseline:  baseEval,
			Mitigated: mitEval,
		},
		StartedAt:   startedAt,
		CompletedAt: workflow.Now(ctx),
	}
	if mitigated.Mitigation != nil {
		report.Mitigation = *mitigated.Mitigation
	}
	logger.Info("audit completed",
		"verified", report.Mitigation.Verified,
		"dp_improved", report.DemographicParityImproved())
	return report, nil
}
