package processing

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/mirthwood/worldevents/pkg/events"
)

// Handler applies one event type's world mutation. Handlers validate their
// own payload shape (the envelope validator stops at "payload is an
// object") and must be domain-idempotent: a crash between handler
// completion and the idempotency write legitimately redelivers an
// already-applied effect, so writes are upserts, never increments.
type Handler interface {
	Type() events.EventType
	Process(ctx context.Context, e *events.Envelope) Result
}

// Registry maps event types to handlers. Built once at startup and checked
// for completeness against the closed enumeration, so an enum/registration
// mismatch fails the process at construction instead of surfacing as
// dead-letters at dispatch time.
type Registry struct {
	handlers map[events.EventType]Handler
}

// NewRegistry builds the registry, rejecting duplicate registrations,
// handlers for types outside the enumeration, and enumeration members left
// without a handler.
func NewRegistry(handlers []Handler) (*Registry, error) {
	byType := make(map[events.EventType]Handler, len(handlers))
	for _, h := range handlers {
		t := h.Type()
		if !t.Valid() {
			return nil, fmt.Errorf("handler registered for %q, which is not in the closed event-type enumeration", t)
		}
		if _, exists := byType[t]; exists {
			return nil, fmt.Errorf("duplicate handler registration for %q", t)
		}
		byType[t] = h
	}

	missing := lo.Filter(events.KnownTypes(), func(t events.EventType, _ int) bool {
		_, ok := byType[t]
		return !ok
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("event types without a registered handler: %v", missing)
	}

	return &Registry{handlers: byType}, nil
}

// Lookup returns the handler for the type, if registered.
func (r *Registry) Lookup(t events.EventType) (Handler, bool) {
	h, ok := r.handlers[t]
	return h, ok
}
