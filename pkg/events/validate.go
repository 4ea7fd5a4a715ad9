package events

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Issue codes returned by Validate. Stable machine-readable values used for
// dead-letter classification and alerting.
const (
	CodeRequired         = "required"
	CodeInvalidUUID      = "invalid-uuid"
	CodeUnknownType      = "unknown-type"
	CodeInvalidActorKind = "invalid-actor-kind"
	CodeInvalidPayload   = "invalid-payload"
	CodeInvalidVersion   = "invalid-version"
)

// Issue describes a single validation failure with enough structure for
// precise dead-letter classification.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Path, i.Message, i.Code)
}

// ValidationError carries the full issue list for a rejected envelope or
// emission request. It is non-retryable: the same input will never succeed.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the full envelope shape: UUID v4 identifiers, closed
// event-type and actor-kind enumerations, and payload being a JSON object.
// Payload depth and per-field shape are left to the owning handler. An
// empty slice means the envelope is valid.
func Validate(e *Envelope) []Issue {
	var issues []Issue

	issues = appendUUIDIssue(issues, "eventId", e.EventID, true)

	if e.Type == "" {
		issues = append(issues, Issue{Path: "type", Message: "event type is required", Code: CodeRequired})
	} else if !e.Type.Valid() {
		issues = append(issues, Issue{
			Path:    "type",
			Message: fmt.Sprintf("event type %q is not in the closed enumeration", e.Type),
			Code:    CodeUnknownType,
		})
	}

	if e.OccurredUTC.IsZero() {
		issues = append(issues, Issue{Path: "occurredUtc", Message: "occurrence time is required", Code: CodeRequired})
	}

	if !e.Actor.Kind.Valid() {
		issues = append(issues, Issue{
			Path:    "actor.kind",
			Message: fmt.Sprintf("actor kind %q is not one of player, npc, system", e.Actor.Kind),
			Code:    CodeInvalidActorKind,
		})
	}
	if e.Actor.ID != "" {
		issues = appendUUIDIssue(issues, "actor.id", e.Actor.ID, false)
	}

	issues = appendUUIDIssue(issues, "correlationId", e.CorrelationID, true)
	if e.CausationID != "" {
		issues = appendUUIDIssue(issues, "causationId", e.CausationID, false)
	}

	if e.IdempotencyKey == "" {
		issues = append(issues, Issue{Path: "idempotencyKey", Message: "idempotency key is required", Code: CodeRequired})
	}

	if e.Version < 1 {
		issues = append(issues, Issue{Path: "version", Message: "schema version must be a positive integer", Code: CodeInvalidVersion})
	}

	if e.Payload == nil {
		issues = append(issues, Issue{Path: "payload", Message: "payload must be a JSON object", Code: CodeInvalidPayload})
	}

	return issues
}

// IsUUIDv4 reports whether s parses as a version-4 UUID.
func IsUUIDv4(s string) bool {
	u, err := uuid.Parse(s)
	return err == nil && u.Version() == 4
}

func appendUUIDIssue(issues []Issue, path, value string, required bool) []Issue {
	if value == "" {
		if required {
			return append(issues, Issue{Path: path, Message: path + " is required", Code: CodeRequired})
		}
		return issues
	}
	if !IsUUIDv4(value) {
		return append(issues, Issue{
			Path:    path,
			Message: fmt.Sprintf("%q is not a valid UUID v4", value),
			Code:    CodeInvalidUUID,
		})
	}
	return issues
}
