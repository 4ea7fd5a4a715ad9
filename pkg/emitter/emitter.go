package emitter

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/events"
)

// Warning codes recorded on EmitResult. Warnings are telemetry signals, not
// errors: emission still succeeds.
const (
	WarnCorrelationGenerated = "correlation-generated"
	WarnIdempotencyDerived   = "idempotency-derived"
)

// Warning flags a non-fatal deviation from caller-supplied input.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options is the caller intent an emission is built from.
type Options struct {
	EventType      events.EventType
	ScopeKey       string
	Payload        map[string]any
	Actor          events.Actor
	CorrelationID  string
	CausationID    string
	IdempotencyKey string
	OccurredUTC    time.Time
	OperationID    string
}

// Result is a validated envelope plus the transport properties derived from
// it. MessageProperties always carries the envelope's correlation id;
// OperationID is included only when the caller supplied one.
type Result struct {
	Envelope          events.Envelope
	MessageProperties map[string]string
	Warnings          []Warning
}

// Emitter builds validated envelopes from caller intent.
type Emitter struct {
	log   *zap.Logger
	clock func() time.Time
}

// New creates an Emitter. The logger is used only for warning visibility;
// validation outcomes are returned, never logged-and-swallowed.
func New(log *zap.Logger) *Emitter {
	return &Emitter{log: log.With(zap.String("component", "emitter")), clock: func() time.Time { return time.Now().UTC() }}
}

// Emit validates caller intent and produces an envelope ready for transport
// wrapping. Unknown event types, unknown actor kinds and malformed
// caller-supplied identifiers fail with a non-retryable ValidationError;
// omitted correlation and idempotency values are generated instead, each
// recorded as a warning.
func (em *Emitter) Emit(opts Options) (Result, error) {
	var issues []events.Issue

	if !opts.EventType.Valid() {
		issues = append(issues, events.Issue{
			Path:    "eventType",
			Message: fmt.Sprintf("event type %q is not in the closed enumeration", opts.EventType),
			Code:    events.CodeUnknownType,
		})
	}
	if !opts.Actor.Kind.Valid() {
		issues = append(issues, events.Issue{
			Path:    "actor.kind",
			Message: fmt.Sprintf("actor kind %q is not one of player, npc, system", opts.Actor.Kind),
			Code:    events.CodeInvalidActorKind,
		})
	}
	if opts.Actor.ID != "" && !events.IsUUIDv4(opts.Actor.ID) {
		issues = append(issues, events.Issue{Path: "actor.id", Message: "actor id must be a UUID v4", Code: events.CodeInvalidUUID})
	}
	// Malformed caller-supplied trace identifiers are rejected, never
	// silently replaced: replacing them would break the causal chain the
	// caller thinks it is building.
	if opts.CorrelationID != "" && !events.IsUUIDv4(opts.CorrelationID) {
		issues = append(issues, events.Issue{Path: "correlationId", Message: "correlation id must be a UUID v4", Code: events.CodeInvalidUUID})
	}
	if opts.CausationID != "" && !events.IsUUIDv4(opts.CausationID) {
		issues = append(issues, events.Issue{Path: "causationId", Message: "causation id must be a UUID v4", Code: events.CodeInvalidUUID})
	}
	if err := events.ValidateScopeKey(opts.ScopeKey); err != nil {
		issues = append(issues, events.Issue{Path: "scopeKey", Message: err.Error(), Code: events.CodeInvalidPayload})
	}
	if opts.Payload == nil {
		issues = append(issues, events.Issue{Path: "payload", Message: "payload must be a JSON object", Code: events.CodeInvalidPayload})
	}
	if len(issues) > 0 {
		return Result{}, &events.ValidationError{Issues: issues}
	}

	occurred := opts.OccurredUTC
	if occurred.IsZero() {
		occurred = em.clock()
	}

	var warnings []Warning

	correlationID := opts.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
		warnings = append(warnings, Warning{
			Code:    WarnCorrelationGenerated,
			Message: "caller omitted correlationId; generated " + correlationID,
		})
		em.log.Warn("correlation id omitted by caller",
			zap.String("event_type", opts.EventType.String()),
			zap.String("generated_correlation_id", correlationID))
	}

	idempotencyKey := opts.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = DeriveIdempotencyKey(opts.Actor.Kind, opts.EventType, opts.ScopeKey, occurred)
		warnings = append(warnings, Warning{
			Code:    WarnIdempotencyDerived,
			Message: "caller omitted idempotencyKey; derived " + idempotencyKey,
		})
	}

	envelope := events.Envelope{
		EventID:        uuid.NewString(),
		Type:           opts.EventType,
		OccurredUTC:    occurred,
		Actor:          opts.Actor,
		CorrelationID:  correlationID,
		CausationID:    opts.CausationID,
		IdempotencyKey: idempotencyKey,
		Version:        events.SchemaVersion,
		Payload:        opts.Payload,
	}

	// Defense in depth: the envelope we just assembled must pass the same
	// validator the processor will run on delivery.
	if issues := events.Validate(&envelope); len(issues) > 0 {
		return Result{}, &events.ValidationError{Issues: issues}
	}

	props := map[string]string{
		PropCorrelationID: envelope.CorrelationID,
		PropEventType:     envelope.Type.String(),
		PropScopeKey:      opts.ScopeKey,
	}
	if opts.OperationID != "" {
		props[PropOperationID] = opts.OperationID
	}

	return Result{Envelope: envelope, MessageProperties: props, Warnings: warnings}, nil
}

// DeriveIdempotencyKey builds the deterministic, time-bucketed key
// actorKind:type:scopeKey:minuteBucket, collapsing identical emissions
// within the same 60-second window into one logical event.
func DeriveIdempotencyKey(kind events.ActorKind, t events.EventType, scopeKey string, occurred time.Time) string {
	bucket := occurred.UTC().Unix() / 60
	return fmt.Sprintf("%s:%s:%s:%d", kind, t, scopeKey, bucket)
}
