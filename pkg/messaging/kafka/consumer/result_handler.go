package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/deadletter"
	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/processing"
)

// offsetStorer stores processed offsets; satisfied by *kafka.Consumer.
type offsetStorer interface {
	StoreMessage(m *kafka.Message) (storedOffsets []kafka.TopicPartition, err error)
}

// resultHandler settles a message after the retry budget is spent. Terminal
// outcomes were dead-lettered inside the pipeline already; what reaches
// here with an error is a transient failure that never recovered, which
// becomes the handler-error class of dead letter.
type resultHandler struct {
	log      *zap.Logger
	recorder *deadletter.Recorder
	consumer offsetStorer
}

func newResultHandler(
	log *zap.Logger,
	recorder *deadletter.Recorder,
	consumer offsetStorer,
) *resultHandler {
	return &resultHandler{
		log:      log,
		recorder: recorder,
		consumer: consumer,
	}
}

func (h *resultHandler) handle(ctx context.Context, err error, message *kafka.Message, d processing.Delivery, span trace.Span) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "message settled")
		h.storeOffset(message)

	case errors.Is(err, context.Canceled):
		// Shutdown mid-message: leave the offset unstored so the message
		// redelivers after restart.
		span.SetStatus(codes.Error, "processing cancelled")
		h.log.Info("processing cancelled, message will redeliver",
			h.messageFields(message)...)

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "retry budget exhausted")
		h.log.Error("retry budget exhausted, dead-lettering message",
			h.messageFieldsWithError(message, err)...)
		h.deadLetterExhausted(ctx, err, message, d)
		h.storeOffset(message)
	}
}

func (h *resultHandler) deadLetterExhausted(ctx context.Context, err error, message *kafka.Message, d processing.Delivery) {
	// Prefer the parsed envelope for a richer record; fall back to the
	// raw-bytes summary when the body never parsed.
	var rawEvent any = message.Value
	var envelope events.Envelope
	if jsonErr := json.Unmarshal(message.Value, &envelope); jsonErr == nil {
		rawEvent = &envelope
	}

	h.recorder.Record(ctx, rawEvent, deadletter.CodeHandlerError, deadletter.Cause{
		Category: "handler",
		Message:  err.Error(),
	}, deadletter.Options{
		PartitionKey:          d.PartitionKey,
		RetryCount:            d.RetryCount,
		FirstAttemptUTC:       d.FirstAttemptUTC,
		OriginalCorrelationID: d.OriginalCorrelationID,
		FailureReason:         "transient failure did not recover within the retry budget",
	})
}

func (h *resultHandler) storeOffset(message *kafka.Message) {
	if _, err := h.consumer.StoreMessage(message); err != nil {
		h.log.Error("failed to store offset", h.messageFieldsWithError(message, err)...)
	}
}

func (h *resultHandler) messageFields(message *kafka.Message) []zap.Field {
	return []zap.Field{
		zap.String("key", string(message.Key)),
		zap.Int32("partition", message.TopicPartition.Partition),
		zap.Int64("offset", int64(message.TopicPartition.Offset)),
	}
}

func (h *resultHandler) messageFieldsWithError(message *kafka.Message, err error) []zap.Field {
	return append(h.messageFields(message), zap.Error(err))
}
