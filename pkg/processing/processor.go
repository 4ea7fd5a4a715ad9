package processing

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/deadletter"
	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/idempotency"
	"github.com/mirthwood/worldevents/pkg/telemetry"
)

// Delivery is one message handed to the pipeline by the transport binding,
// reduced to what the pipeline needs: the raw body plus delivery metadata
// the envelope cannot carry.
type Delivery struct {
	Body                  []byte
	PartitionKey          string
	RetryCount            int
	FirstAttemptUTC       *time.Time
	OriginalCorrelationID string
}

// Processor runs the single-message pipeline: parse, validate, idempotency
// check, dispatch, outcome recording. One invocation handles one message
// strictly sequentially; the host may run many invocations concurrently
// across workers, so the only cross-invocation state is the injected guard.
type Processor struct {
	guard    *idempotency.Guard
	registry *Registry
	recorder *deadletter.Recorder
	sink     telemetry.Sink
	log      *zap.Logger
	clock    func() time.Time
}

// NewProcessor wires the pipeline.
func NewProcessor(
	guard *idempotency.Guard,
	registry *Registry,
	recorder *deadletter.Recorder,
	sink telemetry.Sink,
	log *zap.Logger,
) *Processor {
	return &Processor{
		guard:    guard,
		registry: registry,
		recorder: recorder,
		sink:     sink,
		log:      log.With(zap.String("component", "queue-processor")),
		clock:    time.Now,
	}
}

// Process handles a raw delivery. A nil return means the message is done
// with: applied, suppressed as a duplicate, or dead-lettered. A
// TransientError means the transport should redeliver. Nothing else is ever
// returned, so retry behaviour is decided here and nowhere downstream.
func (p *Processor) Process(ctx context.Context, d Delivery) error {
	var envelope events.Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		// An unparseable body can never parse on redelivery; rethrowing
		// would only produce a redelivery storm.
		p.log.Error("message body is not valid JSON", zap.Error(err),
			zap.String("partition_key", d.PartitionKey))
		p.deadLetter(ctx, d.Body, deadletter.CodeJSONParse, deadletter.Cause{
			Category: "parse",
			Message:  err.Error(),
		}, d, "")
		return nil
	}
	return p.ProcessEnvelope(ctx, &envelope, d)
}

// ProcessEnvelope handles a delivery whose body the transport binding
// already parsed.
func (p *Processor) ProcessEnvelope(ctx context.Context, envelope *events.Envelope, d Delivery) error {
	started := p.clock()

	// All logging and telemetry correlation comes from the envelope body.
	// The emitter guarantees the envelope is authoritative; transport
	// properties are only a routing convenience.
	log := p.log.With(
		zap.String("event_id", envelope.EventID),
		zap.String("event_type", envelope.Type.String()),
		zap.String("correlation_id", envelope.CorrelationID))

	if issues := events.Validate(envelope); len(issues) > 0 {
		verr := &events.ValidationError{Issues: issues}
		log.Error("envelope failed schema validation", zap.Error(verr))
		p.deadLetter(ctx, envelope, deadletter.CodeSchemaValidation, deadletter.Cause{
			Category: "validation",
			Message:  verr.Error(),
			Issues:   issues,
		}, d, envelope.CorrelationID)
		return nil
	}

	duplicate, err := p.guard.Check(ctx, envelope.IdempotencyKey)
	if err != nil {
		// Registry outage: redeliver rather than risk a double apply.
		return &TransientError{Code: ErrCodeTransportUnavailable, Err: err}
	}
	if duplicate {
		log.Info("duplicate delivery suppressed",
			zap.String("idempotency_key", envelope.IdempotencyKey))
		p.trackProcessed(ctx, envelope, started, true)
		return nil
	}

	handler, ok := p.registry.Lookup(envelope.Type)
	if !ok {
		// Schema-valid type with no handler: a deployment gap, not bad
		// input. Redelivery cannot fix configuration.
		log.Error("no handler registered for event type")
		p.deadLetter(ctx, envelope, deadletter.CodeUnknown, deadletter.Cause{
			Category: "dispatch",
			Message:  "no handler registered for event type " + envelope.Type.String(),
		}, d, envelope.CorrelationID)
		return nil
	}

	result := handler.Process(ctx, envelope)
	switch result.Status {
	case StatusSuccess:
		outcome := "applied"
		if result.Created {
			outcome = "created"
		}
		if err := p.guard.MarkProcessed(ctx, envelope.IdempotencyKey, d.PartitionKey, outcome); err != nil {
			// The effect is applied but unrecorded. Handlers are
			// upsert-idempotent, so letting the transport redeliver is
			// safe and restores the missing record.
			log.Error("idempotency record write failed after successful handler", zap.Error(err))
			return &TransientError{Code: ErrCodeTransportUnavailable, Err: err}
		}
		log.Info("event applied",
			zap.Bool("created", result.Created),
			zap.String("idempotency_key", envelope.IdempotencyKey))
		p.trackProcessed(ctx, envelope, started, false)
		return nil

	case StatusInvalidPayload:
		verr := &events.ValidationError{Issues: result.Issues}
		log.Error("handler rejected payload", zap.Error(verr))
		p.deadLetter(ctx, envelope, deadletter.CodeSchemaValidation, deadletter.Cause{
			Category: "payload-validation",
			Message:  verr.Error(),
			Issues:   result.Issues,
		}, d, envelope.CorrelationID)
		return nil

	case StatusTransientFailure:
		// No idempotency record, no dead-letter: the transport's native
		// retry/backoff owns this failure until its delivery count runs
		// out.
		log.Warn("handler reported transient failure", zap.Error(result.Err))
		return &TransientError{Code: ErrCodeHandlerFailure, Err: result.Err}

	default:
		log.Error("handler returned unknown result status",
			zap.String("status", string(result.Status)))
		return &TransientError{Code: ErrCodeHandlerFailure, Err: result.Err}
	}
}

func (p *Processor) deadLetter(ctx context.Context, rawEvent any, code deadletter.ErrorCode, cause deadletter.Cause, d Delivery, correlationID string) {
	record := p.recorder.Record(ctx, rawEvent, code, cause, deadletter.Options{
		PartitionKey:          d.PartitionKey,
		RetryCount:            d.RetryCount,
		FirstAttemptUTC:       d.FirstAttemptUTC,
		OriginalCorrelationID: d.OriginalCorrelationID,
		FailureReason:         cause.Message,
	})

	props := map[string]any{
		telemetry.PropErrorCode: string(code),
		telemetry.PropEventType: record.EventType,
	}
	if correlationID != "" {
		props[telemetry.PropCorrelationID] = correlationID
	}
	p.sink.TrackEvent(ctx, telemetry.EventDeadLettered, props)
}

func (p *Processor) trackProcessed(ctx context.Context, envelope *events.Envelope, started time.Time, duplicate bool) {
	props := map[string]any{
		telemetry.PropEventType:     envelope.Type.String(),
		telemetry.PropActorKind:     envelope.Actor.Kind.String(),
		telemetry.PropCorrelationID: envelope.CorrelationID,
		telemetry.PropLatencyMS:     p.clock().Sub(started).Milliseconds(),
		telemetry.PropDuplicate:     duplicate,
	}
	if envelope.CausationID != "" {
		props[telemetry.PropCausationID] = envelope.CausationID
	}
	p.sink.TrackEvent(ctx, telemetry.EventProcessed, props)
}
