package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEnvelope() *Envelope {
	return &Envelope{
		EventID:        uuid.NewString(),
		Type:           TypeExitCreate,
		OccurredUTC:    time.Now().UTC(),
		Actor:          Actor{Kind: ActorSystem},
		CorrelationID:  uuid.NewString(),
		IdempotencyKey: "system:World.Exit.Create:loc:A:12345",
		Version:        SchemaVersion,
		Payload:        map[string]any{"direction": "east"},
	}
}

func TestValidate_ValidEnvelope(t *testing.T) {
	issues := Validate(validEnvelope())

	assert.Empty(t, issues)
}

func TestValidate_RejectsUnknownEventType(t *testing.T) {
	e := validEnvelope()
	e.Type = "World.Dragon.Summon"

	issues := Validate(e)

	require.Len(t, issues, 1)
	assert.Equal(t, "type", issues[0].Path)
	assert.Equal(t, CodeUnknownType, issues[0].Code)
}

func TestValidate_UUIDFields(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *Envelope)
		path     string
		expected string
	}{
		{
			name:     "missing event id",
			mutate:   func(e *Envelope) { e.EventID = "" },
			path:     "eventId",
			expected: CodeRequired,
		},
		{
			name:     "malformed event id",
			mutate:   func(e *Envelope) { e.EventID = "not-a-uuid" },
			path:     "eventId",
			expected: CodeInvalidUUID,
		},
		{
			name:     "missing correlation id",
			mutate:   func(e *Envelope) { e.CorrelationID = "" },
			path:     "correlationId",
			expected: CodeRequired,
		},
		{
			name:     "malformed causation id",
			mutate:   func(e *Envelope) { e.CausationID = "1234" },
			path:     "causationId",
			expected: CodeInvalidUUID,
		},
		{
			name:     "malformed actor id",
			mutate:   func(e *Envelope) { e.Actor.ID = "player-7" },
			path:     "actor.id",
			expected: CodeInvalidUUID,
		},
		{
			name: "uuid v1 rejected",
			mutate: func(e *Envelope) {
				v1, err := uuid.NewUUID()
				require.NoError(t, err)
				e.EventID = v1.String()
			},
			path:     "eventId",
			expected: CodeInvalidUUID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEnvelope()
			tt.mutate(e)

			issues := Validate(e)

			require.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
			assert.Equal(t, tt.expected, issues[0].Code)
		})
	}
}

func TestValidate_CollectsMultipleIssues(t *testing.T) {
	e := validEnvelope()
	e.EventID = ""
	e.Actor.Kind = "ghost"
	e.Payload = nil

	issues := Validate(e)

	assert.Len(t, issues, 3)
}

func TestValidate_MissingPayload(t *testing.T) {
	e := validEnvelope()
	e.Payload = nil

	issues := Validate(e)

	require.Len(t, issues, 1)
	assert.Equal(t, "payload", issues[0].Path)
	assert.Equal(t, CodeInvalidPayload, issues[0].Code)
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Issues: []Issue{
		{Path: "type", Message: "unknown", Code: CodeUnknownType},
	}}

	assert.Contains(t, err.Error(), "type: unknown")
	assert.Contains(t, err.Error(), CodeUnknownType)
}

func TestValidateScopeKey(t *testing.T) {
	assert.NoError(t, ValidateScopeKey(LocationScope("A")))
	assert.NoError(t, ValidateScopeKey(PlayerScope(uuid.NewString())))
	assert.NoError(t, ValidateScopeKey(GlobalScope("weather")))
	assert.Error(t, ValidateScopeKey("loc"))
	assert.Error(t, ValidateScopeKey("loc:"))
	assert.Error(t, ValidateScopeKey("realm:A"))
}
