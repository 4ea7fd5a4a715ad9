package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/core/health"
	"github.com/mirthwood/worldevents/pkg/core/logger"
)

// reader pulls messages off the broker and feeds the dispatcher channel.
// Read errors never stop the loop; repeated ones are throttled so a broker
// outage does not flood the log.
type reader struct {
	consumer     *kafka.Consumer
	topic        string
	messagesChan chan<- *kafka.Message
	log          *zap.Logger
	throttler    *logger.Throttler
	readiness    health.ReadinessWaiter

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func newReader(
	consumer *kafka.Consumer,
	topic string,
	messagesChan chan<- *kafka.Message,
	log *zap.Logger,
	readiness health.ReadinessWaiter,
) *reader {
	return &reader{
		consumer:     consumer,
		topic:        topic,
		messagesChan: messagesChan,
		log:          log,
		throttler:    logger.NewThrottler(log, time.Minute),
		readiness:    readiness,
	}
}

func (r *reader) start() {
	r.log.Info("starting reader")
	r.ctx, r.cancelFunc = context.WithCancel(context.Background())
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run()
	}()
}

func (r *reader) stop() {
	r.log.Info("stopping reader")
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	r.wg.Wait()
	r.log.Info("reader stopped")
}

func (r *reader) run() {
	// No message is read before the stores behind the pipeline are up.
	r.log.Info("waiting for readiness before reading messages")
	if err := r.readiness.WaitReady(r.ctx); err != nil {
		r.log.Info("reader cancelled while waiting for readiness")
		return
	}
	r.log.Info("readiness achieved, starting to read messages")

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		msg, err := r.consumer.ReadMessage(5 * time.Second)
		if err != nil {
			r.handleReadError(err)
			continue
		}

		select {
		case <-r.ctx.Done():
			return
		case r.messagesChan <- msg:
		}
	}
}

func (r *reader) handleReadError(err error) {
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		switch {
		case kafkaErr.IsTimeout():
			// Normal poll timeout.
			return

		case kafkaErr.Code() == kafka.ErrUnknownTopicOrPart:
			r.throttler.Warn("unknown-topic", "topic not available, waiting for topic creation",
				zap.String("topic", r.topic))
			sleep(r.ctx, 10*time.Second)
			return

		case kafkaErr.Code() == kafka.ErrTransport,
			kafkaErr.Code() == kafka.ErrAllBrokersDown,
			kafkaErr.Code() == kafka.ErrNetworkException:
			r.throttler.Warn("broker-connection", "broker connection issue, retrying",
				zap.String("topic", r.topic), zap.Error(err))
			sleep(r.ctx, 5*time.Second)
			return

		case kafkaErr.Code() == kafka.ErrLeaderNotAvailable,
			kafkaErr.Code() == kafka.ErrNotLeaderForPartition:
			r.log.Debug("partition leader changing, retrying", zap.String("topic", r.topic))
			sleep(r.ctx, 2*time.Second)
			return
		}
	}

	r.log.Error("failed to read message", zap.Error(err))
}
