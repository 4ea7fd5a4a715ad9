package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterSink decorates another sink with OpenTelemetry counters so operators
// can alert on processed/duplicate/dead-letter volume without parsing logs.
type meterSink struct {
	next         Sink
	processed    metric.Int64Counter
	duplicates   metric.Int64Counter
	deadLettered metric.Int64Counter
}

// NewMeterSink wraps next with counter instrumentation from the given
// meter. Counter creation failures are returned rather than ignored:
// a half-instrumented pipeline is worse than a loud startup failure.
func NewMeterSink(next Sink, meter metric.Meter) (Sink, error) {
	processed, err := meter.Int64Counter("worldevents.processed",
		metric.WithDescription("world events applied successfully"))
	if err != nil {
		return nil, err
	}
	duplicates, err := meter.Int64Counter("worldevents.duplicates",
		metric.WithDescription("deliveries suppressed by the idempotency guard"))
	if err != nil {
		return nil, err
	}
	deadLettered, err := meter.Int64Counter("worldevents.deadlettered",
		metric.WithDescription("events captured by the dead-letter recorder"))
	if err != nil {
		return nil, err
	}

	return &meterSink{
		next:         next,
		processed:    processed,
		duplicates:   duplicates,
		deadLettered: deadLettered,
	}, nil
}

func (s *meterSink) TrackEvent(ctx context.Context, name string, props map[string]any) {
	switch name {
	case EventProcessed:
		eventType, _ := props[PropEventType].(string)
		attrs := metric.WithAttributes(attribute.String("event_type", eventType))
		if duplicate, _ := props[PropDuplicate].(bool); duplicate {
			s.duplicates.Add(ctx, 1, attrs)
		} else {
			s.processed.Add(ctx, 1, attrs)
		}
	case EventDeadLettered:
		errorCode, _ := props[PropErrorCode].(string)
		s.deadLettered.Add(ctx, 1, metric.WithAttributes(attribute.String("error_code", errorCode)))
	}

	s.next.TrackEvent(ctx, name, props)
}
