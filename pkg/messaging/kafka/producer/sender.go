package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/emitter"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
)

// HeaderContentType carries the body content type on the wire.
const HeaderContentType = "contentType"

// Sender publishes prepared emissions to the world events topic and waits
// for broker acknowledgement.
type Sender interface {
	Send(ctx context.Context, message emitter.EnqueuedMessage) error
}

type sender struct {
	producer Producer
	topic    string
	log      *zap.Logger
}

func newSender(producer Producer, conf config.Config, log *zap.Logger) Sender {
	return &sender{
		producer: producer,
		topic:    conf.Producer.Topic,
		log:      log,
	}
}

func (s *sender) Send(ctx context.Context, message emitter.EnqueuedMessage) error {
	body, err := json.Marshal(message.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope %s: %w", message.Body.EventID, err)
	}

	kafkaMessage := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &s.topic, Partition: kafka.PartitionAny},
		// The scope key is the partition key so all mutations of one world
		// scope land on the same partition, in order.
		Key:     []byte(message.ApplicationProperties[emitter.PropScopeKey]),
		Value:   body,
		Headers: s.buildHeaders(ctx, message),
	}

	deliveryChan := make(chan kafka.Event, 1)
	if err := s.producer.Produce(kafkaMessage, deliveryChan); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event %T for envelope %s", e, message.Body.EventID)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("failed to deliver envelope %s: %w", message.Body.EventID, m.TopicPartition.Error)
		}
	}

	s.log.Debug("envelope published",
		zap.String("event_id", message.Body.EventID),
		zap.String("event_type", string(message.Body.Type)),
		zap.String("correlation_id", message.CorrelationID))
	return nil
}

func (s *sender) buildHeaders(ctx context.Context, message emitter.EnqueuedMessage) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]kafka.Header, 0, len(message.ApplicationProperties)+len(carrier)+1)
	for key, value := range message.ApplicationProperties {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	for key, value := range carrier {
		headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
	}
	headers = append(headers, kafka.Header{Key: HeaderContentType, Value: []byte(message.ContentType)})
	return headers
}
