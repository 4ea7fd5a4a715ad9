package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// RecordingSink captures tracked events for assertions.
type RecordingSink struct {
	mu     sync.Mutex
	Events []RecordedEvent
}

type RecordedEvent struct {
	Name  string
	Props map[string]any
}

func (s *RecordingSink) TrackEvent(ctx context.Context, name string, props map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Events = append(s.Events, RecordedEvent{Name: name, Props: props})
}

func TestZapSink_EmitsStructuredLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.TrackEvent(context.Background(), EventProcessed, map[string]any{
		PropEventType: "World.Exit.Create",
		PropDuplicate: false,
	})

	entries := logs.FilterMessage(EventProcessed).All()
	require.Len(t, entries, 1)
}

func TestMeterSink_ForwardsToNext(t *testing.T) {
	recording := &RecordingSink{}
	sink, err := NewMeterSink(recording, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	sink.TrackEvent(context.Background(), EventProcessed, map[string]any{
		PropEventType: "World.NPC.Tick",
		PropDuplicate: true,
	})
	sink.TrackEvent(context.Background(), EventDeadLettered, map[string]any{
		PropErrorCode: "json-parse",
	})

	require.Len(t, recording.Events, 2)
	assert.Equal(t, EventProcessed, recording.Events[0].Name)
	assert.Equal(t, EventDeadLettered, recording.Events[1].Name)
}
