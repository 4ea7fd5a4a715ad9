package emitter

import (
	"github.com/mirthwood/worldevents/pkg/events"
)

// Application property keys on the enqueued message.
const (
	PropCorrelationID = "correlationId"
	PropEventType     = "eventType"
	PropScopeKey      = "scopeKey"
	PropOperationID   = "operationId"

	// PropOriginalCorrelationID preserves a caller-supplied correlation
	// value that conflicted with the envelope's. The envelope is
	// authoritative; the original is kept as a side channel, never
	// silently overwritten.
	PropOriginalCorrelationID = "publish.correlationId.original"
)

// ContentTypeJSON is the fixed content type of every enqueued message.
const ContentTypeJSON = "application/json"

// EnqueuedMessage is the transport wrapper handed to the external send
// operation. The envelope is embedded by value: the message must stay
// intact even if the caller mutates its own copy after enqueueing.
type EnqueuedMessage struct {
	Body                  events.Envelope   `json:"body"`
	ApplicationProperties map[string]string `json:"applicationProperties"`
	CorrelationID         string            `json:"correlationId"`
	ContentType           string            `json:"contentType"`
}

// PrepareEnqueueMessage merges caller-supplied application properties with
// the emission's, the envelope's correlation id taking precedence. Any
// conflicting caller correlation value survives under
// publish.correlationId.original.
func PrepareEnqueueMessage(result Result, existing map[string]string) EnqueuedMessage {
	props := make(map[string]string, len(existing)+len(result.MessageProperties))
	for k, v := range existing {
		props[k] = v
	}

	if original, ok := existing[PropCorrelationID]; ok && original != result.Envelope.CorrelationID {
		props[PropOriginalCorrelationID] = original
	}
	for k, v := range result.MessageProperties {
		props[k] = v
	}

	return EnqueuedMessage{
		Body:                  result.Envelope,
		ApplicationProperties: props,
		CorrelationID:         result.Envelope.CorrelationID,
		ContentType:           ContentTypeJSON,
	}
}
