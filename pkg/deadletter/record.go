package deadletter

import (
	"time"

	"github.com/google/uuid"

	"github.com/mirthwood/worldevents/pkg/events"
)

// ErrorCode classifies a terminal failure for alerting. handler-error is
// the retryable class: its volume growing means a real defect, not bad
// input, since the transport already retried those deliveries.
type ErrorCode string

const (
	CodeJSONParse        ErrorCode = "json-parse"
	CodeSchemaValidation ErrorCode = "schema-validation"
	CodeHandlerError     ErrorCode = "handler-error"
	CodeUnknown          ErrorCode = "unknown"
)

// Cause describes what failed, with structured validation issues when the
// failure was a rejection rather than an exception.
type Cause struct {
	Category string         `bson:"category" json:"category"`
	Message  string         `bson:"message" json:"message"`
	Issues   []events.Issue `bson:"issues,omitempty" json:"issues,omitempty"`
}

// Record is the append-only triage artifact for a terminally-failed event.
// It has its own identity, independent from the original event, and never
// stores payload content verbatim.
type Record struct {
	ID                    string         `bson:"_id" json:"id"`
	OriginalEventID       string         `bson:"originalEventId,omitempty" json:"originalEventId,omitempty"`
	EventType             string         `bson:"eventType,omitempty" json:"eventType,omitempty"`
	ActorKind             string         `bson:"actorKind,omitempty" json:"actorKind,omitempty"`
	RedactedEnvelope      map[string]any `bson:"redactedEnvelope" json:"redactedEnvelope"`
	Error                 Cause          `bson:"error" json:"error"`
	DeadLetteredUTC       time.Time      `bson:"deadLetteredUtc" json:"deadLetteredUtc"`
	OccurredUTC           *time.Time     `bson:"occurredUtc,omitempty" json:"occurredUtc,omitempty"`
	CorrelationID         string         `bson:"correlationId,omitempty" json:"correlationId,omitempty"`
	OriginalCorrelationID string         `bson:"originalCorrelationId,omitempty" json:"originalCorrelationId,omitempty"`
	FailureReason         string         `bson:"failureReason,omitempty" json:"failureReason,omitempty"`
	FirstAttemptUTC       *time.Time     `bson:"firstAttemptTimestamp,omitempty" json:"firstAttemptTimestamp,omitempty"`
	ErrorCode             ErrorCode      `bson:"errorCode" json:"errorCode"`
	RetryCount            int            `bson:"retryCount" json:"retryCount"`
	FinalError            string         `bson:"finalError" json:"finalError"`
	PartitionKey          string         `bson:"partitionKey" json:"partitionKey"`
}

// Options carries delivery metadata the processor knows but the envelope
// does not.
type Options struct {
	PartitionKey          string
	RetryCount            int
	FailureReason         string
	FirstAttemptUTC       *time.Time
	OriginalCorrelationID string
}

// NewRecord builds a dead-letter record from whatever survived of the
// event: a parsed envelope, or the raw bytes when parsing itself failed.
// Redaction always runs before the record exists; there is no path to a
// verbatim copy.
func NewRecord(rawEvent any, code ErrorCode, cause Cause, opts Options) Record {
	record := Record{
		ID:                    uuid.NewString(),
		Error:                 cause,
		DeadLetteredUTC:       time.Now().UTC(),
		OriginalCorrelationID: opts.OriginalCorrelationID,
		FailureReason:         opts.FailureReason,
		FirstAttemptUTC:       opts.FirstAttemptUTC,
		ErrorCode:             code,
		RetryCount:            opts.RetryCount,
		FinalError:            cause.Message,
		PartitionKey:          opts.PartitionKey,
	}

	switch src := rawEvent.(type) {
	case *events.Envelope:
		record.OriginalEventID = src.EventID
		record.EventType = src.Type.String()
		record.ActorKind = src.Actor.Kind.String()
		record.CorrelationID = src.CorrelationID
		if !src.OccurredUTC.IsZero() {
			occurred := src.OccurredUTC
			record.OccurredUTC = &occurred
		}
		record.RedactedEnvelope = RedactEnvelope(src)
	case []byte:
		record.RedactedEnvelope = summarizeRaw(len(src))
	case string:
		record.RedactedEnvelope = summarizeRaw(len(src))
	default:
		record.RedactedEnvelope = map[string]any{"unparsed": true}
	}

	return record
}

// summarizeRaw describes an unparseable body without retaining any of it.
func summarizeRaw(size int) map[string]any {
	return map[string]any{
		"unparsed":  true,
		"byteCount": size,
	}
}
