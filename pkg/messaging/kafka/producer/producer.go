package producer

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
)

type Producer interface {
	Produce(message *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

type producer struct {
	producer *kafka.Producer
	log      *zap.Logger
}

func newProducer(conf config.Config, log *zap.Logger) (Producer, *kafka.Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": conf.Brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create producer: %w", err)
	}

	// Drain the global event channel so delivery reports for sends without
	// a dedicated channel do not pile up.
	go func() {
		for e := range p.Events() {
			if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
				log.Error("failed to publish message",
					zap.String("topic_partition", ev.TopicPartition.String()),
					zap.Error(ev.TopicPartition.Error))
			}
		}
	}()

	return &producer{producer: p, log: log}, p, nil
}

func (p *producer) Produce(message *kafka.Message, deliveryChan chan kafka.Event) error {
	if err := p.producer.Produce(message, deliveryChan); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", message.TopicPartition.String(), err)
	}
	return nil
}

func (p *producer) Flush(timeoutMs int) int {
	return p.producer.Flush(timeoutMs)
}

func (p *producer) Close() {
	p.producer.Close()
}
