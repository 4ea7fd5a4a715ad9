package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// initializer subscribes and waits for the topic to be ready before the
// reader starts pulling.
type initializer struct {
	consumer         *kafka.Consumer
	topic            string
	log              *zap.Logger
	timeoutSeconds   int
	failOnTopicError bool
}

func newInitializer(
	consumer *kafka.Consumer,
	topic string,
	log *zap.Logger,
	timeoutSeconds int,
	failOnTopicError bool,
) *initializer {
	return &initializer{
		consumer:         consumer,
		topic:            topic,
		log:              log,
		timeoutSeconds:   timeoutSeconds,
		failOnTopicError: failOnTopicError,
	}
}

func (i *initializer) initialize(ctx context.Context) error {
	i.log.Info("initializing consumer", zap.String("topic", i.topic))

	if err := i.consumer.SubscribeTopics([]string{i.topic}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", i.topic, err)
	}

	waitCtx := ctx
	if i.timeoutSeconds > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, time.Duration(i.timeoutSeconds)*time.Second)
		defer cancel()
	}

	if err := i.waitUntilReady(waitCtx); err != nil {
		if i.failOnTopicError {
			return err
		}
		i.log.Warn("topic verification failed, continuing anyway", zap.Error(err))
	}

	return nil
}

func (i *initializer) waitUntilReady(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second
	policy.MaxElapsedTime = 0 // bounded by ctx

	check := func() error {
		metadata, err := i.consumer.GetMetadata(&i.topic, false, 5000)
		if err != nil {
			i.log.Warn("failed to get topic metadata, retrying",
				zap.String("topic", i.topic), zap.Error(err))
			return err
		}

		topicMeta, ok := metadata.Topics[i.topic]
		if !ok {
			return fmt.Errorf("topic %s not found in metadata", i.topic)
		}
		if topicMeta.Error.Code() != kafka.ErrNoError {
			return fmt.Errorf("topic %s has error: %s", i.topic, topicMeta.Error.String())
		}
		if len(topicMeta.Partitions) == 0 {
			return fmt.Errorf("topic %s has no partitions", i.topic)
		}

		i.log.Info("topic is ready",
			zap.String("topic", i.topic),
			zap.Int("partitions", len(topicMeta.Partitions)))
		return nil
	}

	return backoff.Retry(check, backoff.WithContext(policy, ctx))
}
