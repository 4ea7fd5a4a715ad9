package consumer

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/core/health"
	"github.com/mirthwood/worldevents/pkg/deadletter"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
	"github.com/mirthwood/worldevents/pkg/processing"
)

// NewConsumerModule wires the reader/dispatcher pair that feeds the
// processing pipeline from the world events topic.
func NewConsumerModule() fx.Option {
	return fx.Module(
		"kafka-consumer",
		fx.Decorate(func(log *zap.Logger, conf config.Config) *zap.Logger {
			return log.With(
				zap.String("component", "kafka-consumer"),
				zap.String("topic", conf.Consumer.Topic),
				zap.String("group_id", conf.Consumer.GroupID),
			)
		}),
		fx.Provide(
			provideKafkaConsumer,
			provideMessageChannel,
			provideRetryExecutor,
			provideTracer,
			provideResultHandler,
			fx.Private,
		),
		fx.Invoke(provideDispatcher, provideReader),
	)
}

func provideKafkaConsumer(lc fx.Lifecycle, conf config.Config, log *zap.Logger, componentMgr health.ComponentManager) (*kafka.Consumer, error) {
	kafkaConsumer, err := newKafkaConsumer(conf)
	if err != nil {
		return nil, err
	}

	init := newInitializer(
		kafkaConsumer,
		conf.Consumer.Topic,
		log,
		conf.Consumer.ReadinessTimeoutSeconds,
		conf.Consumer.FailOnTopicError,
	)
	markReady := componentMgr.AddComponent("kafka-consumer")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := init.initialize(ctx); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing kafka consumer")
			return kafkaConsumer.Close()
		},
	})

	return kafkaConsumer, nil
}

func provideMessageChannel(conf config.Config) chan *kafka.Message {
	return make(chan *kafka.Message, conf.Consumer.ChannelBuffer)
}

func provideRetryExecutor(conf config.Config, log *zap.Logger) RetryExecutor {
	return newRetryExecutor(conf.Consumer.MaxRetryAttempts, conf.Consumer.MaxRetryBackoff, log)
}

func provideTracer() MessageTracer {
	return newMessageTracer(otel.GetTracerProvider())
}

func provideResultHandler(log *zap.Logger, recorder *deadletter.Recorder, kafkaConsumer *kafka.Consumer) *resultHandler {
	return newResultHandler(log, recorder, kafkaConsumer)
}

func provideDispatcher(
	lc fx.Lifecycle,
	kafkaConsumer *kafka.Consumer,
	messagesChan chan *kafka.Message,
	pipeline *processing.Processor,
	log *zap.Logger,
	handler *resultHandler,
	retryExecutor RetryExecutor,
	tracer MessageTracer,
) {
	d := newDispatcher(kafkaConsumer, messagesChan, pipeline, log, handler, retryExecutor, tracer)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			d.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.stop()
			return nil
		},
	})
}

func provideReader(
	lc fx.Lifecycle,
	kafkaConsumer *kafka.Consumer,
	conf config.Config,
	messagesChan chan *kafka.Message,
	log *zap.Logger,
	readiness health.ReadinessWaiter,
) {
	r := newReader(kafkaConsumer, conf.Consumer.Topic, messagesChan, log, readiness)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			r.start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			r.stop()
			return nil
		},
	})
}
