package telemetry

import (
	"context"

	"go.uber.org/zap"
)

// Event names emitted by the pipeline.
const (
	EventProcessed    = "world.event.processed"
	EventDeadLettered = "world.event.deadlettered"
)

// Property keys used in event property bags.
const (
	PropEventType     = "eventType"
	PropActorKind     = "actorKind"
	PropCorrelationID = "correlationId"
	PropCausationID   = "causationId"
	PropLatencyMS     = "latencyMs"
	PropDuplicate     = "duplicate"
	PropErrorCode     = "errorCode"
)

// Sink accepts named events with property bags. Exporter wiring lives with
// the host; the pipeline only depends on this contract.
type Sink interface {
	TrackEvent(ctx context.Context, name string, props map[string]any)
}

type zapSink struct {
	log *zap.Logger
}

// NewZapSink emits telemetry events as structured log lines.
func NewZapSink(log *zap.Logger) Sink {
	return &zapSink{log: log.With(zap.String("component", "telemetry"))}
}

func (s *zapSink) TrackEvent(ctx context.Context, name string, props map[string]any) {
	s.log.Info(name, zap.Any("properties", props))
}

// NopSink discards all events. Test and default wiring.
type NopSink struct{}

func (NopSink) TrackEvent(ctx context.Context, name string, props map[string]any) {}
