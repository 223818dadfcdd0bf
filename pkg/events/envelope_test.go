package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventSink_DeduplicatesByKey(t *testing.T) {
	sink := NewMemoryEventSink()
	ctx := context.Background()

	require.NoError(t, sink.Append(ctx, Envelope{Type: "ModelTrained", IdempotencyKey: "a"}))
	require.NoError(t, sink.Append(ctx, Envelope{Type: "ModelTrained", IdempotencyKey: "a"}))
	require.NoError(t, sink.Append(ctx, Envelope{Type: "ModelEvaluated", IdempotencyKey: "b"}))

	assert.Len(t, sink.Events(), 2)
	assert.Len(t, sink.OfType("ModelTrained"), 1)
	assert.Empty(t, sink.OfType("MitigationCompleted"))
}

func TestMemoryEventSink_ConcurrentAppend(t *testing.T) {
	sink := NewMemoryEventSink()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = sink.Append(context.Background(), Envelope{IdempotencyKey: string(rune('a' + i%10))})
		}(i)
	}
	wg.Wait()
	assert.Len(t, sink.Events(), 10)
}

func TestLogEventSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogEventSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Append(context.Background(), Envelope{
		Type:           "MitigationCompleted",
		Source:         "activity.train_mitigated",
		IdempotencyKey: "k",
		Payload:        json.RawMessage(`{"rounds":3}`),
	})
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "MitigationCompleted", rec["type"])
	assert.Equal(t, "events", rec["component"])
	assert.JSONEq(t, `{"rounds":3}`, rec["payload"].(string))
}

func TestNoOpEventSink(t *testing.T) {
	assert.NoError(t, NewNoOpEventSink().Append(context.Background(), Envelope{}))
}
