package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahrav/go-fairness/internal/domain"
	"github.com/ahrav/go-fairness/pkg/activity"
	"github.com/ahrav/go-fairness/pkg/events"
)

// defaultTenant stands in for the tenant until audits carry one.
var defaultTenant = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

// EventEmitter builds and emits the audit's domain events. Emission is
// best-effort; failures are logged and never fail an activity.
type EventEmitter struct {
	base activity.BaseActivities
}

// NewEventEmitter creates a new EventEmitter with the provided base activities.
func NewEventEmitter(base activity.BaseActivities) *EventEmitter {
	return &EventEmitter{base: base}
}

// EmitModelTrained announces a persisted baseline or mitigated model.
func (e *EventEmitter) EmitModelTrained(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	auditID string,
	payload domain.ModelTrainedPayload,
) {
	tenantID, ok := e.tenant(ctx, wfCtx)
	if !ok {
		return
	}
	ev, err := domain.NewModelTrainedEvent(tenantID, wfCtx.WorkflowID, wfCtx.RunID, auditID, payload)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to create ModelTrained event", "model", payload.Model, "error", err)
		return
	}
	e.base.EmitEventSafe(ctx, toEnvelope(ev), fmt.Sprintf("ModelTrained[%s]", payload.Model))
}

// EmitMitigationCompleted announces the end of a reduction run, whatever
// its state.
func (e *EventEmitter) EmitMitigationCompleted(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	auditID string,
	summary domain.MitigationSummary,
	modelKey string,
) {
	tenantID, ok := e.tenant(ctx, wfCtx)
	if !ok {
		return
	}
	ev, err := domain.NewMitigationCompletedEvent(tenantID, wfCtx.WorkflowID, wfCtx.RunID, auditID, summary, modelKey)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to create MitigationCompleted event", "error", err)
		return
	}
	e.base.EmitEventSafe(ctx, toEnvelope(ev), fmt.Sprintf("MitigationCompleted[%s]", summary.State))
}

// EmitModelEvaluated announces the headline metrics of an evaluation.
func (e *EventEmitter) EmitModelEvaluated(
	ctx context.Context,
	wfCtx activity.WorkflowContext,
	auditID string,
	eval *domain.ModelEvaluation,
) {
	tenantID, ok := e.tenant(ctx, wfCtx)
	if !ok {
		return
	}
	ev, err := domain.NewModelEvaluatedEvent(tenantID, wfCtx.WorkflowID, wfCtx.RunID, auditID, eval)
	if err != nil {
		activity.SafeLogError(ctx, "Failed to create ModelEvaluated event", "model", eval.Model, "error", err)
		return
	}
	e.base.EmitEventSafe(ctx, toEnvelope(ev), fmt.Sprintf("ModelEvaluated[%s]", eval.Model))
}

func (e *EventEmitter) tenant(ctx context.Context, wfCtx activity.WorkflowContext) (uuid.UUID, bool) {
	id, err := parseUUID(wfCtx.TenantID, "tenant")
	if err != nil {
		activity.SafeLogError(ctx, "Failed to parse tenant ID", "tenant_id", wfCtx.TenantID, "error", err)
		return uuid.Nil, false
	}
	return id, true
}

// parseUUID parses input, mapping the "default" tenant to defaultTenant.
func parseUUID(input, what string) (uuid.UUID, error) {
	if input == "default" {
		return defaultTenant, nil
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s UUID '%s': %w", what, input, err)
	}
	return parsed, nil
}

// toEnvelope converts a domain event to the generic transport envelope.
func toEnvelope(ev domain.EventEnvelope) events.Envelope {
	return events.Envelope{
		ID:             ev.IdempotencyKey,
		Type:           string(ev.EventType),
		Source:         ev.Producer,
		Version:        fmt.Sprintf("%d.0.0", ev.Version),
		Timestamp:      ev.OccurredAt,
		IdempotencyKey: ev.IdempotencyKey,
		TenantID:       ev.TenantID.String(),
		WorkflowID:     ev.WorkflowID,
		RunID:          ev.RunID,
		Payload:        ev.Payload,
	}
}
