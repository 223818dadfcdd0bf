// Package pipeline runs named stages in a fixed order. The first failing
// stage halts the run and is reported by name.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Audit stage names, in execution order.
const (
	StagePrepareData       = "prepare_data"
	StageTrainBaseline     = "train_baseline"
	StageEvaluateBaseline  = "evaluate_baseline"
	StageTrainMitigated    = "train_mitigated"
	StageEvaluateMitigated = "evaluate_mitigated"
)

// AuditStages lists the audit stages in execution order.
var AuditStages = []string{
	StagePrepareData,
	StageTrainBaseline,
	StageEvaluateBaseline,
	StageTrainMitigated,
	StageEvaluateMitigated,
}

// Stage is one named step.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// StageError reports the stage that halted a run.
type StageError struct {
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *StageError) Error() string { return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err) }

// Unwrap returns the stage's error.
func (e *StageError) Unwrap() error { return e.Err }

// StageResult records a completed stage.
type StageResult struct {
	Name     string
	Duration time.Duration
}

// Runner executes stages sequentially.
type Runner struct {
	stages []Stage
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a runner over stages. A nil logger uses slog.Default.
func NewRunner(logger *slog.Logger, stages ...Stage) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{stages: stages, logger: logger.With("component", "pipeline"), now: time.Now}
}

// Run executes every stage in order and returns the completed ones. A stage
// is not started once ctx is done.
func (r *Runner) Run(ctx context.Context) ([]StageResult, error) {
	done := make([]StageResult, 0, len(r.stages))
	for _, s := range r.stages {
		if err := ctx.Err(); err != nil {
			return done, &StageError{Stage: s.Name, Err: err}
		}

		start := r.now()
		r.logger.Info("stage started", "stage", s.Name)
		if err := s.Run(ctx); err != nil {
			r.logger.Error("stage failed", "stage", s.Name, "error", err)
			return done, &StageError{Stage: s.Name, Err: err}
		}
		elapsed := r.now().Sub(start)
		r.logger.Info("stage completed", "stage", s.Name, "duration", elapsed)
		done = append(done, StageResult{Name: s.Name, Duration: elapsed})
	}
	return done, nil
}
