package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/processing"
	"github.com/mirthwood/worldevents/pkg/world"
)

// Compass directions an exit may point in.
var validDirections = map[string]struct{}{
	"north": {}, "south": {}, "east": {}, "west": {},
	"northeast": {}, "northwest": {}, "southeast": {}, "southwest": {},
	"up": {}, "down": {}, "in": {}, "out": {},
}

// ExitCreateHandler carves a new exit between two locations.
type ExitCreateHandler struct {
	locations world.LocationRepository
	log       *zap.Logger
}

func NewExitCreateHandler(locations world.LocationRepository, log *zap.Logger) *ExitCreateHandler {
	return &ExitCreateHandler{
		locations: locations,
		log:       log.With(zap.String("handler", "exit-create")),
	}
}

func (h *ExitCreateHandler) Type() events.EventType {
	return events.TypeExitCreate
}

func (h *ExitCreateHandler) Process(ctx context.Context, e *events.Envelope) processing.Result {
	reader := newPayloadReader(e.Payload)
	fromLocationID := reader.requiredString("fromLocationId")
	toLocationID := reader.requiredString("toLocationId")
	direction := reader.requiredString("direction")

	if direction != "" {
		if _, ok := validDirections[direction]; !ok {
			reader.issues = append(reader.issues, events.Issue{
				Path:    "payload.direction",
				Message: "direction " + direction + " is not a known compass direction",
				Code:    events.CodeInvalidPayload,
			})
		}
	}
	if fromLocationID != "" && fromLocationID == toLocationID {
		reader.issues = append(reader.issues, events.Issue{
			Path:    "payload.toLocationId",
			Message: "an exit cannot lead back to its own location",
			Code:    events.CodeInvalidPayload,
		})
	}
	if reader.invalid() {
		return processing.InvalidPayload(reader.issues...)
	}

	created, err := h.locations.EnsureExit(ctx, fromLocationID, world.Exit{
		Direction:    direction,
		ToLocationID: toLocationID,
		CreatedUTC:   e.OccurredUTC.UTC(),
	})
	if err != nil {
		return processing.TransientFailure(err)
	}

	if !created {
		h.log.Debug("exit already exists",
			zap.String("from", fromLocationID),
			zap.String("direction", direction))
	}
	return processing.Succeeded(created, map[string]any{
		"fromLocationId": fromLocationID,
		"direction":      direction,
	})
}
