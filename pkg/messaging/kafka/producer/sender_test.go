package producer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/emitter"
	"github.com/mirthwood/worldevents/pkg/events"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
)

type fakeProducer struct {
	produced    []*kafka.Message
	produceErr  error
	deliveryErr error
	noDelivery  bool
}

func (f *fakeProducer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if f.produceErr != nil {
		return f.produceErr
	}
	f.produced = append(f.produced, message)
	if f.noDelivery {
		return nil
	}
	report := *message
	report.TopicPartition.Error = f.deliveryErr
	deliveryChan <- &report
	return nil
}

func (f *fakeProducer) Flush(timeoutMs int) int { return 0 }

func (f *fakeProducer) Close() {}

func enqueuedMessage() emitter.EnqueuedMessage {
	return emitter.EnqueuedMessage{
		Body: events.Envelope{
			EventID:        "11111111-1111-4111-8111-111111111111",
			Type:           events.TypeLocationDescribe,
			OccurredUTC:    time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
			Actor:          events.Actor{Kind: events.ActorPlayer, ID: "p-1"},
			CorrelationID:  "22222222-2222-4222-8222-222222222222",
			IdempotencyKey: "player:World.Location.Describe:loc:cavern-07:29780000",
			Version:        1,
			Payload:        map[string]any{"locationId": "cavern-07", "description": "a damp cave"},
		},
		ApplicationProperties: map[string]string{
			emitter.PropCorrelationID: "22222222-2222-4222-8222-222222222222",
			emitter.PropEventType:     "World.Location.Describe",
			emitter.PropScopeKey:      "loc:cavern-07",
		},
		CorrelationID: "22222222-2222-4222-8222-222222222222",
		ContentType:   emitter.ContentTypeJSON,
	}
}

func newSenderFixture(p Producer) Sender {
	conf := config.Config{Producer: config.ProducerConfig{Topic: "world.events"}}
	return newSender(p, conf, zap.NewNop())
}

func TestSender(t *testing.T) {
	t.Run("publishes envelope keyed by scope", func(t *testing.T) {
		fake := &fakeProducer{}
		s := newSenderFixture(fake)

		err := s.Send(context.Background(), enqueuedMessage())

		require.NoError(t, err)
		require.Len(t, fake.produced, 1)
		msg := fake.produced[0]

		assert.Equal(t, "world.events", *msg.TopicPartition.Topic)
		assert.Equal(t, []byte("loc:cavern-07"), msg.Key)

		var envelope events.Envelope
		require.NoError(t, json.Unmarshal(msg.Value, &envelope))
		assert.Equal(t, "11111111-1111-4111-8111-111111111111", envelope.EventID)
		assert.Equal(t, events.TypeLocationDescribe, envelope.Type)
	})

	t.Run("carries application properties and content type as headers", func(t *testing.T) {
		fake := &fakeProducer{}
		s := newSenderFixture(fake)

		require.NoError(t, s.Send(context.Background(), enqueuedMessage()))

		headers := map[string]string{}
		for _, h := range fake.produced[0].Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, "loc:cavern-07", headers[emitter.PropScopeKey])
		assert.Equal(t, "World.Location.Describe", headers[emitter.PropEventType])
		assert.Equal(t, emitter.ContentTypeJSON, headers[HeaderContentType])
	})

	t.Run("surfaces produce errors", func(t *testing.T) {
		fake := &fakeProducer{produceErr: errors.New("queue full")}
		s := newSenderFixture(fake)

		err := s.Send(context.Background(), enqueuedMessage())

		assert.ErrorContains(t, err, "queue full")
	})

	t.Run("surfaces delivery failures", func(t *testing.T) {
		fake := &fakeProducer{deliveryErr: errors.New("broker rejected")}
		s := newSenderFixture(fake)

		err := s.Send(context.Background(), enqueuedMessage())

		assert.ErrorContains(t, err, "broker rejected")
	})

	t.Run("gives up waiting for delivery when cancelled", func(t *testing.T) {
		fake := &fakeProducer{noDelivery: true}
		s := newSenderFixture(fake)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Send(ctx, enqueuedMessage())

		assert.ErrorIs(t, err, context.Canceled)
	})
}
