package consumer

import (
	"strconv"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/mirthwood/worldevents/pkg/emitter"
	"github.com/mirthwood/worldevents/pkg/processing"
)

// Delivery metadata headers the transport stamps alongside the emitter's
// application properties.
const (
	HeaderRetryCount      = "delivery.retryCount"
	HeaderFirstAttemptUTC = "delivery.firstAttemptUtc"
)

func headerValue(message *kafka.Message, key string) string {
	for _, header := range message.Headers {
		if header.Key == key {
			return string(header.Value)
		}
	}
	return ""
}

// deliveryFromMessage translates the wire message into the pipeline's
// transport-independent delivery. The partition key is the message key the
// sender routed on; everything else the envelope cannot carry comes from
// headers.
func deliveryFromMessage(message *kafka.Message) processing.Delivery {
	d := processing.Delivery{
		Body:                  message.Value,
		PartitionKey:          string(message.Key),
		OriginalCorrelationID: headerValue(message, emitter.PropOriginalCorrelationID),
	}

	if raw := headerValue(message, HeaderRetryCount); raw != "" {
		if count, err := strconv.Atoi(raw); err == nil {
			d.RetryCount = count
		}
	}
	if raw := headerValue(message, HeaderFirstAttemptUTC); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			d.FirstAttemptUTC = &t
		}
	} else if !message.Timestamp.IsZero() {
		ts := message.Timestamp.UTC()
		d.FirstAttemptUTC = &ts
	}

	return d
}
