package deadletter

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mirthwood/worldevents/pkg/events"
)

// Redaction limits. Dead-letter storage is for triage (volume, categories,
// correlation tracing), not a durable copy of gameplay content.
const (
	maxStringLength  = 64
	maxArrayItems    = 8
	truncationMarker = "…[truncated]"
)

// MaskIdentifier keeps the last 4 characters of an identifier and masks the
// rest.
func MaskIdentifier(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return "***" + s[len(s)-4:]
}

// RedactEnvelope produces the storable projection of an envelope: trace
// identifiers kept for correlation, actor identity masked, payload reduced
// to a field summary.
func RedactEnvelope(e *events.Envelope) map[string]any {
	actor := map[string]any{"kind": e.Actor.Kind.String()}
	if e.Actor.ID != "" {
		actor["id"] = MaskIdentifier(e.Actor.ID)
	}

	redacted := map[string]any{
		"eventId":       e.EventID,
		"type":          e.Type.String(),
		"actor":         actor,
		"correlationId": e.CorrelationID,
		"version":       e.Version,
		"payload":       SummarizePayload(e.Payload),
	}
	if e.CausationID != "" {
		redacted["causationId"] = e.CausationID
	}
	if !e.OccurredUTC.IsZero() {
		redacted["occurredUtc"] = e.OccurredUTC
	}
	return redacted
}

// SummarizePayload replaces payload content with a field-count and
// per-field summary: id-bearing keys masked, strings truncated, arrays
// capped, nested objects reduced to their field counts.
func SummarizePayload(payload map[string]any) map[string]any {
	if payload == nil {
		return map[string]any{"fieldCount": 0}
	}

	fields := make(map[string]any, len(payload))
	for key, value := range payload {
		fields[key] = summarizeValue(key, value)
	}

	return map[string]any{
		"fieldCount": len(payload),
		"fields":     fields,
	}
}

func summarizeValue(key string, value any) any {
	switch v := value.(type) {
	case string:
		if isIdentifierKey(key) {
			return MaskIdentifier(v)
		}
		return truncate(v)
	case map[string]any:
		return fmt.Sprintf("object(%d fields)", len(v))
	case []any:
		capped := lo.Slice(v, 0, maxArrayItems)
		items := make([]any, len(capped))
		for i, item := range capped {
			items[i] = summarizeValue(key, item)
		}
		if len(v) > maxArrayItems {
			items = append(items, fmt.Sprintf("…%d more items", len(v)-maxArrayItems))
		}
		return items
	case nil:
		return nil
	default:
		// Numbers and booleans carry little reconstructable content.
		return v
	}
}

func isIdentifierKey(key string) bool {
	return strings.Contains(strings.ToLower(key), "id")
}

func truncate(s string) string {
	if len(s) <= maxStringLength {
		return s
	}
	return s[:maxStringLength] + truncationMarker
}
