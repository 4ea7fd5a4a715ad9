package consumer

import (
	"context"
	"errors"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/processing"
)

// dispatcher drains the reader channel and runs each message through the
// pipeline, one at a time. Concurrency comes from partition assignment
// across worker instances, not from parallelism inside one dispatcher, so
// per-partition ordering holds.
type dispatcher struct {
	consumer      *kafka.Consumer
	messagesChan  <-chan *kafka.Message
	pipeline      *processing.Processor
	log           *zap.Logger
	resultHandler *resultHandler
	retryExecutor RetryExecutor
	tracer        MessageTracer

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func newDispatcher(
	consumer *kafka.Consumer,
	messagesChan <-chan *kafka.Message,
	pipeline *processing.Processor,
	log *zap.Logger,
	resultHandler *resultHandler,
	retryExecutor RetryExecutor,
	tracer MessageTracer,
) *dispatcher {
	return &dispatcher{
		consumer:      consumer,
		messagesChan:  messagesChan,
		pipeline:      pipeline,
		log:           log,
		resultHandler: resultHandler,
		retryExecutor: retryExecutor,
		tracer:        tracer,
	}
}

func (d *dispatcher) start() {
	d.log.Info("starting dispatcher")
	d.ctx, d.cancelFunc = context.WithCancel(context.Background())
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run()
	}()
}

func (d *dispatcher) stop() {
	d.log.Info("stopping dispatcher")
	if d.cancelFunc != nil {
		d.cancelFunc()
	}
	d.wg.Wait()

	// Commit whatever offsets were stored before shutdown.
	if _, commitErr := d.consumer.Commit(); commitErr != nil {
		var kafkaErr kafka.Error
		if !errors.As(commitErr, &kafkaErr) || kafkaErr.Code() != kafka.ErrNoOffset {
			d.log.Warn("failed to commit offsets on shutdown", zap.Error(commitErr))
		}
	}

	d.log.Info("dispatcher stopped")
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.messagesChan:
			if d.ctx.Err() != nil {
				return
			}
			d.processMessage(msg)
		}
	}
}

func (d *dispatcher) processMessage(message *kafka.Message) {
	ctx := d.tracer.ExtractContext(d.ctx, message)
	ctx, span := d.tracer.StartConsumerSpan(ctx, message)
	defer span.End()

	delivery := deliveryFromMessage(message)

	err := d.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		return d.pipeline.Process(ctx, delivery)
	})

	d.resultHandler.handle(ctx, err, message, delivery, span)
}
