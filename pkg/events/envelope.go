// Package events provides the generic event infrastructure for audit event
// emission: the Envelope wrapping every domain event and the EventSink
// interface events are appended to.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Envelope wraps a domain event with routing, idempotency and correlation
// metadata.
type Envelope struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type identifies the event for routing, e.g. "ModelTrained".
	Type string `json:"type"`

	// Source identifies the emitting component, e.g. "activity.train_baseline".
	Source string `json:"source"`

	// Version is the payload schema version.
	Version string `json:"version"`

	Timestamp time.Time `json:"timestamp"`

	// IdempotencyKey is identical across retries of the same logical event.
	IdempotencyKey string `json:"idempotency_key"`

	TenantID   string `json:"tenant_id"`
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`

	// Payload is the event body; its schema depends on Type and Version.
	Payload json.RawMessage `json:"payload"`
}

// EventSink receives emitted events.
//
// Implementations must treat a repeated IdempotencyKey as a no-op. Callers
// do not fail their primary operation when Append errors.
type EventSink interface {
	Append(ctx context.Context, envelope Envelope) error
}

// NoOpEventSink discards every event.
type NoOpEventSink struct{}

// Append implements EventSink.
func (n *NoOpEventSink) Append(_ context.Context, _ Envelope) error { return nil }

// NewNoOpEventSink creates a new no-op event sink.
func NewNoOpEventSink() EventSink { return &NoOpEventSink{} }

// MemoryEventSink keeps events in memory, deduplicated by idempotency key.
// The local CLI prints them; tests assert on them.
type MemoryEventSink struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	events []Envelope
}

// NewMemoryEventSink creates an empty sink.
func NewMemoryEventSink() *MemoryEventSink {
	return &MemoryEventSink{seen: make(map[string]struct{})}
}

// Append implements EventSink.
func (m *MemoryEventSink) Append(_ context.Context, envelope Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.seen[envelope.IdempotencyKey]; dup {
		return nil
	}
	m.seen[envelope.IdempotencyKey] = struct{}{}
	m.events = append(m.events, envelope)
	return nil
}

// Events returns the appended events in order.
func (m *MemoryEventSink) Events() []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}

// OfType returns the appended events with the given type.
func (m *MemoryEventSink) OfType(eventType string) []Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Envelope
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// LogEventSink writes each event as a structured log record. It does not
// deduplicate.
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink logs through logger, or slog.Default when nil.
func NewLogEventSink(logger *slog.Logger) *LogEventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger.With("component", "events")}
}

// Append implements EventSink.
func (l *LogEventSink) Append(ctx context.Context, envelope Envelope) error {
	l.logger.InfoContext(ctx, "event",
		"type", envelope.Type,
		"source", envelope.Source,
		"workflow_id", envelope.WorkflowID,
		"idempotency_key", envelope.IdempotencyKey,
		"payload", string(envelope.Payload))
	return nil
}
