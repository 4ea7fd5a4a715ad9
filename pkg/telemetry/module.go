package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewTelemetryModule provides the pipeline's Sink: zap-backed events
// decorated with otel counters from the globally registered meter provider
// (whatever exporter the host wired in, or a no-op by default).
func NewTelemetryModule() fx.Option {
	return fx.Provide(provideSink)
}

func provideSink(log *zap.Logger) (Sink, error) {
	meter := otel.GetMeterProvider().Meter("worldevents")
	return NewMeterSink(NewZapSink(log), meter)
}
