// Package worker exposes helpers to register the audit workflow and
// activities with a Temporal worker.
package worker

import (
	"log/slog"

	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-fairness/internal/audit"
	"github.com/ahrav/go-fairness/internal/store"
	"github.com/ahrav/go-fairness/internal/workflow"
	"github.com/ahrav/go-fairness/pkg/activity"
	"github.com/ahrav/go-fairness/pkg/events"
)

// Registrar is the subset of a Temporal worker used for registration.
type Registrar interface {
	RegisterWorkflow(w any)
	RegisterActivity(a any)
}

var _ Registrar = sdkworker.Worker(nil)

// RegisterAll registers the audit workflow and its activities. Must be
// called once during worker initialization, before the worker starts.
//
// Activities share blobs, so every worker polling the task queue must see
// the same store; use Redis when more than one worker process runs.
func RegisterAll(w Registrar, blobs store.BlobStore, sink events.EventSink, logger *slog.Logger) *audit.Activities {
	if sink == nil {
		sink = events.NewNoOpEventSink()
	}
	acts := audit.NewActivities(activity.NewBaseActivities(sink), blobs, logger)

	w.RegisterWorkflow(workflow.FairnessAuditWorkflow)

	w.RegisterActivity(acts.PrepareDataset)
	w.RegisterActivity(acts.TrainBaseline)
	w.RegisterActivity(acts.TrainMitigated)
	w.RegisterActivity(acts.EvaluateModel)
	return acts
}
