package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event emitted by the system.
type EventType string

const (
	// EventTypeModelTrained is emitted when a baseline or mitigated model is persisted.
	EventTypeModelTrained EventType = "ModelTrained"

	// EventTypeMitigationCompleted is emitted when a reduction run ends, with its status.
	EventTypeMitigationCompleted EventType = "MitigationCompleted"

	// EventTypeModelEvaluated is emitted after grouped metrics and gaps are computed.
	EventTypeModelEvaluated EventType = "ModelEvaluated"
)

// EventEnvelope wraps all events with consistent metadata for projection processing.
type EventEnvelope struct {
	// IdempotencyKey ensures events are processed exactly once during retries.
	IdempotencyKey string `json:"idempotency_key" validate:"required"`

	EventType EventType `json:"event_type" validate:"required"`

	// Version enables event schema evolution. Start at 1.
	Version int `json:"version" validate:"required,min=1"`

	OccurredAt time.Time `json:"occurred_at" validate:"required"`

	TenantID uuid.UUID `json:"tenant_id" validate:"required"`

	WorkflowID string `json:"workflow_id" validate:"required"`
	RunID      string `json:"run_id" validate:"required"`

	// ArtifactRefs contains keys of related stored models or datasets.
	ArtifactRefs []string `json:"artifact_refs,omitempty"`

	Payload json.RawMessage `json:"payload" validate:"required"`

	// Producer identifies the component that emitted this event.
	Producer string `json:"producer" validate:"required"`
}

// Validate checks if the event envelope meets all requirements.
func (e *EventEnvelope) Validate() error { return validate.Struct(e) }

// ModelTrainedPayload describes a persisted model.
type ModelTrainedPayload struct {
	Model    string `json:"model" validate:"required,oneof=baseline mitigated"`
	ModelKey string `json:"model_key" validate:"required"`
	Examples int    `json:"examples" validate:"min=1"`
	Features int    `json:"features" validate:"min=1"`
}

// MitigationCompletedPayload carries the reduction outcome.
type MitigationCompletedPayload struct {
	MitigationSummary
}

// ModelEvaluatedPayload carries headline gaps of an evaluation.
type ModelEvaluatedPayload struct {
	Model                       string   `json:"model" validate:"required,oneof=baseline mitigated"`
	Groups                      int      `json:"groups" validate:"min=0"`
	Examples                    int      `json:"examples" validate:"min=0"`
	Accuracy                    *float64 `json:"accuracy,omitempty"`
	DemographicParityDifference *float64 `json:"demographic_parity_difference,omitempty"`
	DemographicParityRatio      *float64 `json:"demographic_parity_ratio,omitempty"`
	EqualOpportunityDifference  *float64 `json:"equal_opportunity_difference,omitempty"`
}

// NewEventEnvelope creates a new EventEnvelope with required fields populated.
// The payload should be marshaled JSON for the specific event type.
func NewEventEnvelope(
	eventType EventType,
	tenantID uuid.UUID,
	workflowID, runID string,
	payload json.RawMessage,
	producer string,
	artifactRefs []string,
) EventEnvelope {
	return EventEnvelope{
		EventType:    eventType,
		Version:      1,
		TenantID:     tenantID,
		WorkflowID:   workflowID,
		RunID:        runID,
		ArtifactRefs: artifactRefs,
		Payload:      payload,
		Producer:     producer,
		OccurredAt:   time.Now(),
	}
}

// GenerateIdempotencyKey creates a deterministic key for event deduplication.
// Retries and replays of the same logical event produce identical keys.
func GenerateIdempotencyKey(auditID, eventSuffix string) string {
	hasher := sha256.New()
	hasher.Write([]byte(auditID + eventSuffix))
	return hex.EncodeToString(hasher.Sum(nil))
}

// NewModelTrainedEvent creates a ModelTrained event envelope.
func NewModelTrainedEvent(
	tenantID uuid.UUID,
	workflowID, runID, auditID string,
	payload ModelTrainedPayload,
) (EventEnvelope, error) {
	if err := validate.Struct(payload); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid model trained payload: %w", err)
	}
	return newEvent(EventTypeModelTrained, tenantID, workflowID, runID, payload,
		"activity.train_"+payload.Model, []string{payload.ModelKey},
		GenerateIdempotencyKey(auditID, ":trained:"+payload.Model))
}

// NewMitigationCompletedEvent creates a MitigationCompleted event envelope.
func NewMitigationCompletedEvent(
	tenantID uuid.UUID,
	workflowID, runID, auditID string,
	summary MitigationSummary,
	modelKey string,
) (EventEnvelope, error) {
	var refs []string
	if modelKey != "" {
		refs = []string{modelKey}
	}
	return newEvent(EventTypeMitigationCompleted, tenantID, workflowID, runID,
		MitigationCompletedPayload{MitigationSummary: summary},
		"activity.train_mitigated", refs,
		GenerateIdempotencyKey(auditID, ":mitigation:1"))
}

// NewModelEvaluatedEvent creates a ModelEvaluated event envelope.
func NewModelEvaluatedEvent(
	tenantID uuid.UUID,
	workflowID, runID, auditID string,
	eval *ModelEvaluation,
) (EventEnvelope, error) {
	payload := ModelEvaluatedPayload{Model: eval.Model}
	if eval.Metrics != nil {
		payload.Groups = len(eval.Metrics.Groups)
		payload.Examples = eval.Metrics.Total
		if acc, ok := eval.Metrics.Overall["accuracy"]; ok {
			payload.Accuracy = &acc
		}
	}
	if dp := eval.Fairness.DemographicParity; dp != nil {
		payload.DemographicParityDifference = &dp.Difference
		payload.DemographicParityRatio = &dp.Ratio
	}
	if eo := eval.Fairness.EqualOpportunity; eo != nil {
		payload.EqualOpportunityDifference = &eo.Difference
	}
	if err := validate.Struct(payload); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid model evaluated payload: %w", err)
	}
	var refs []string
	if !eval.ModelRef.IsZero() {
		refs = []string{eval.ModelRef.Key}
	}
	return newEvent(EventTypeModelEvaluated, tenantID, workflowID, runID, payload,
		"activity.evaluate_model", refs,
		GenerateIdempotencyKey(auditID, ":evaluated:"+eval.Model))
}

func newEvent(
	eventType EventType,
	tenantID uuid.UUID,
	workflowID, runID string,
	payload any,
	producer string,
	refs []string,
	idemKey string,
) (EventEnvelope, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	envelope := NewEventEnvelope(eventType, tenantID, workflowID, runID, payloadJSON, producer, refs)
	envelope.IdempotencyKey = idemKey

	if err := envelope.Validate(); err != nil {
		return EventEnvelope{}, fmt.Errorf("invalid event envelope: %w", err)
	}
	return envelope, nil
}
