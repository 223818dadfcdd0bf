package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-fairness/internal/audit"
	"github.com/ahrav/go-fairness/internal/domain"
)

// RunAudit executes the audit stages in-process by calling the activities
// directly. It is the local counterpart of the Temporal workflow.
func RunAudit(
	ctx context.Context,
	acts *audit.Activities,
	req *domain.AuditRequest,
	logger *slog.Logger,
) (*domain.AuditReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		prepared            *domain.PrepareDatasetOutput
		baseline, mitigated *domain.TrainModelOutput
		baseEval, mitEval   *domain.ModelEvaluation
	)
	evaluate := func(model *domain.TrainModelOutput, out **domain.ModelEvaluation) func(context.Context) error {
		return func(ctx context.Context) error {
			eval, err := acts.EvaluateModel(ctx, domain.EvaluateModelInput{
				AuditID:    req.ID,
				Model:      model.Model,
				ModelRef:   model.ModelRef,
				DatasetRef: prepared.DatasetRef,
				Metrics:    req.Metrics,
			})
			*out = eval
			return err
		}
	}

	startedAt := time.Now()
	runner := NewRunner(logger,
		Stage{Name: StagePrepareData, Run: func(ctx context.Context) (err error) {
			prepared, err = acts.PrepareDataset(ctx, domain.PrepareDatasetInput{AuditID: req.ID, Dataset: req.Dataset})
			return err
		}},
		Stage{Name: StageTrainBaseline, Run: func(ctx context.Context) (err error) {
			baseline, err = acts.TrainBaseline(ctx, domain.TrainBaselineInput{
				AuditID:    req.ID,
				DatasetRef: prepared.DatasetRef,
				Oracle:     req.Baseline,
				Seed:       req.Reduction.Seed,
			})
			return err
		}},
		Stage{Name: StageEvaluateBaseline, Run: func(ctx context.Context) error {
			return evaluate(baseline, &baseEval)(ctx)
		}},
		Stage{Name: StageTrainMitigated, Run: func(ctx context.Context) (err error) {
			mitigated, err = acts.TrainMitigated(ctx, domain.TrainMitigatedInput{
				AuditID:        req.ID,
				DatasetRef:     prepared.DatasetRef,
				Oracle:         req.Baseline,
				Reduction:      req.Reduction,
				PredictionMode: req.PredictionMode,
			})
			return err
		}},
		Stage{Name: StageEvaluateMitigated, Run: func(ctx context.Context) error {
			return evaluate(mitigated, &mitEval)(ctx)
		}},
	)
	if _, err := runner.Run(ctx); err != nil {
		return nil, err
	}

	return &domain.AuditReport{
		RequestID: req.ID,
		Comparison: domain.Comparison{
			Baseline:   *baseEval,
			Mitigated:  *mitEval,
			Mitigation: *mitigated.Mitigation,
		},
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}, nil
}
