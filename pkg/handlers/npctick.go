package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/processing"
	"github.com/mirthwood/worldevents/pkg/world"
)

// NPCTickHandler records an NPC's position and behaviour for one simulation
// tick. Ticks for the same NPC within a minute collapse into one event
// upstream, so the write is a full replace of the presence document.
type NPCTickHandler struct {
	npcs world.NPCRepository
	log  *zap.Logger
}

func NewNPCTickHandler(npcs world.NPCRepository, log *zap.Logger) *NPCTickHandler {
	return &NPCTickHandler{
		npcs: npcs,
		log:  log.With(zap.String("handler", "npc-tick")),
	}
}

func (h *NPCTickHandler) Type() events.EventType {
	return events.TypeNPCTick
}

func (h *NPCTickHandler) Process(ctx context.Context, e *events.Envelope) processing.Result {
	reader := newPayloadReader(e.Payload)
	npcID := reader.requiredString("npcId")
	locationID := reader.requiredString("locationId")
	activity := reader.optionalString("activity")
	mood := reader.optionalString("mood")

	if reader.invalid() {
		return processing.InvalidPayload(reader.issues...)
	}

	created, err := h.npcs.SetPresence(ctx, world.Presence{
		NPCID:      npcID,
		LocationID: locationID,
		Activity:   activity,
		Mood:       mood,
	})
	if err != nil {
		return processing.TransientFailure(err)
	}

	if created {
		h.log.Info("npc observed for the first time",
			zap.String("npc_id", npcID),
			zap.String("location_id", locationID))
	}
	return processing.Succeeded(created, map[string]any{
		"npcId":      npcID,
		"locationId": locationID,
	})
}
