package processing

import (
	"go.uber.org/fx"
)

// AsHandler annotates a handler constructor into the event_handlers group
// the registry collects at startup.
func AsHandler(constructor any) any {
	return fx.Annotate(
		constructor,
		fx.As(new(Handler)),
		fx.ResultTags(`group:"event_handlers"`),
	)
}

// NewProcessingModule wires the registry and processor. Registry
// construction fails the fx app when the handler set does not cover the
// event-type enumeration.
func NewProcessingModule() fx.Option {
	return fx.Module(
		"processing",
		fx.Provide(
			fx.Annotate(
				NewRegistry,
				fx.ParamTags(`group:"event_handlers"`),
			),
			NewProcessor,
		),
	)
}
