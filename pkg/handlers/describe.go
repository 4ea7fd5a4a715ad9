package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/processing"
	"github.com/mirthwood/worldevents/pkg/world"
)

// Descriptions longer than this are an authoring mistake, not prose.
const maxDescriptionLength = 4096

// DescribeHandler replaces a location's narrative description.
type DescribeHandler struct {
	descriptions world.DescriptionRepository
	log          *zap.Logger
}

func NewDescribeHandler(descriptions world.DescriptionRepository, log *zap.Logger) *DescribeHandler {
	return &DescribeHandler{
		descriptions: descriptions,
		log:          log.With(zap.String("handler", "location-describe")),
	}
}

func (h *DescribeHandler) Type() events.EventType {
	return events.TypeLocationDescribe
}

func (h *DescribeHandler) Process(ctx context.Context, e *events.Envelope) processing.Result {
	reader := newPayloadReader(e.Payload)
	locationID := reader.requiredString("locationId")
	text := reader.requiredString("description")

	if len(text) > maxDescriptionLength {
		reader.issues = append(reader.issues, events.Issue{
			Path:    "payload.description",
			Message: fmt.Sprintf("description exceeds %d characters", maxDescriptionLength),
			Code:    events.CodeInvalidPayload,
		})
	}
	if reader.invalid() {
		return processing.InvalidPayload(reader.issues...)
	}

	created, err := h.descriptions.UpsertDescription(ctx, world.Description{
		LocationID: locationID,
		Text:       text,
		AuthorID:   e.Actor.ID,
	})
	if err != nil {
		return processing.TransientFailure(err)
	}

	return processing.Succeeded(created, map[string]any{
		"locationId": locationID,
	})
}
