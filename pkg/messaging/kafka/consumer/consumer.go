package consumer

import (
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
)

// newKafkaConsumer builds the consumer with manual offset storage: the
// offset for a message is stored only after the pipeline settles it, so a
// crash mid-message redelivers it. Commits of stored offsets stay
// automatic.
func newKafkaConsumer(conf config.Config) (*kafka.Consumer, error) {
	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"group.id":                 conf.Consumer.GroupID,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  3000,
		"auto.offset.reset":        conf.Consumer.AutoOffsetReset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return kafkaConsumer, nil
}
