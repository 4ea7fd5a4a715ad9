package events

import (
	"fmt"
	"strings"
	"time"
)

// Actor is the originator of a world event.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// Envelope is the canonical, transport-independent representation of a
// world event. The JSON field names are the wire contract shared with every
// other consumer of the queue and must not change without a schema version
// bump.
type Envelope struct {
	EventID        string         `json:"eventId"`
	Type           EventType      `json:"type"`
	OccurredUTC    time.Time      `json:"occurredUtc"`
	Actor          Actor          `json:"actor"`
	CorrelationID  string         `json:"correlationId"`
	CausationID    string         `json:"causationId,omitempty"`
	IdempotencyKey string         `json:"idempotencyKey"`
	Version        int            `json:"version"`
	Payload        map[string]any `json:"payload"`
}

// Scope key prefixes. A scope key partitions transport routing and the
// idempotency registry; it is not part of event identity.
const (
	scopeLocation = "loc"
	scopePlayer   = "player"
	scopeGlobal   = "global"
)

// LocationScope builds a scope key for a location partition.
func LocationScope(locationID string) string {
	return scopeLocation + ":" + locationID
}

// PlayerScope builds a scope key for a player partition.
func PlayerScope(playerID string) string {
	return scopePlayer + ":" + playerID
}

// GlobalScope builds a scope key for a global category partition.
func GlobalScope(category string) string {
	return scopeGlobal + ":" + category
}

// ValidateScopeKey checks the <prefix>:<value> shape and the closed prefix
// set.
func ValidateScopeKey(scopeKey string) error {
	prefix, value, ok := strings.Cut(scopeKey, ":")
	if !ok || value == "" {
		return fmt.Errorf("scope key %q must have the form <prefix>:<value>", scopeKey)
	}
	switch prefix {
	case scopeLocation, scopePlayer, scopeGlobal:
		return nil
	default:
		return fmt.Errorf("scope key %q has unknown prefix %q", scopeKey, prefix)
	}
}
