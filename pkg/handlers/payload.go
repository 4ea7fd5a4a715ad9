package handlers

import (
	"fmt"
	"strings"

	"github.com/mirthwood/worldevents/pkg/events"
)

// payloadReader accumulates validation issues while pulling typed fields
// out of the untyped payload map. Handlers report all problems at once
// instead of stopping at the first.
type payloadReader struct {
	payload map[string]any
	issues  []events.Issue
}

func newPayloadReader(payload map[string]any) *payloadReader {
	return &payloadReader{payload: payload}
}

func (r *payloadReader) requiredString(field string) string {
	value, ok := r.payload[field]
	if !ok || value == nil {
		r.issues = append(r.issues, events.Issue{
			Path:    "payload." + field,
			Message: field + " is required",
			Code:    events.CodeRequired,
		})
		return ""
	}
	s, ok := value.(string)
	if !ok {
		r.issues = append(r.issues, events.Issue{
			Path:    "payload." + field,
			Message: fmt.Sprintf("%s must be a string, got %T", field, value),
			Code:    events.CodeInvalidPayload,
		})
		return ""
	}
	if strings.TrimSpace(s) == "" {
		r.issues = append(r.issues, events.Issue{
			Path:    "payload." + field,
			Message: field + " must not be blank",
			Code:    events.CodeRequired,
		})
		return ""
	}
	return s
}

func (r *payloadReader) optionalString(field string) string {
	value, ok := r.payload[field]
	if !ok || value == nil {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		r.issues = append(r.issues, events.Issue{
			Path:    "payload." + field,
			Message: fmt.Sprintf("%s must be a string, got %T", field, value),
			Code:    events.CodeInvalidPayload,
		})
		return ""
	}
	return s
}

func (r *payloadReader) invalid() bool {
	return len(r.issues) > 0
}
