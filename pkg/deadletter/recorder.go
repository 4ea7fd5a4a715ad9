package deadletter

import (
	"context"

	"go.uber.org/zap"
)

// Store is the append-only dead-letter persistence.
type Store interface {
	Append(ctx context.Context, record Record) error
}

// Recorder redacts and persists terminally-failed events. Persistence is
// best-effort: a store failure is logged and the record returned anyway,
// because a dead-letter write must never mask the processing failure that
// produced it.
type Recorder struct {
	store Store
	log   *zap.Logger
}

func NewRecorder(store Store, log *zap.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log.With(zap.String("component", "deadletter-recorder")),
	}
}

// Record builds the redacted record and appends it to the store.
func (r *Recorder) Record(ctx context.Context, rawEvent any, code ErrorCode, cause Cause, opts Options) Record {
	record := NewRecord(rawEvent, code, cause, opts)

	if err := r.store.Append(ctx, record); err != nil {
		r.log.Error("failed to persist dead-letter record",
			zap.String("dead_letter_id", record.ID),
			zap.String("original_event_id", record.OriginalEventID),
			zap.String("error_code", string(code)),
			zap.Error(err))
		return record
	}

	r.log.Warn("event dead-lettered",
		zap.String("dead_letter_id", record.ID),
		zap.String("original_event_id", record.OriginalEventID),
		zap.String("event_type", record.EventType),
		zap.String("error_code", string(code)),
		zap.String("correlation_id", record.CorrelationID),
		zap.Int("retry_count", record.RetryCount))
	return record
}
