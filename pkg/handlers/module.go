package handlers

import (
	"go.uber.org/fx"

	"github.com/mirthwood/worldevents/pkg/processing"
)

// NewHandlersModule registers every world-mutation handler. The processing
// registry checks this set covers the full event-type enumeration at
// startup.
func NewHandlersModule() fx.Option {
	return fx.Provide(
		processing.AsHandler(NewExitCreateHandler),
		processing.AsHandler(NewDescribeHandler),
		processing.AsHandler(NewNPCTickHandler),
	)
}
