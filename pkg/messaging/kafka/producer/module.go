package producer

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/core/health"
	"github.com/mirthwood/worldevents/pkg/messaging/kafka/config"
)

func NewProducerModule() fx.Option {
	return fx.Module(
		"kafka-producer",
		fx.Provide(
			provideProducer,
			newSender,
		),
	)
}

func provideProducer(lc fx.Lifecycle, log *zap.Logger, conf config.Config, componentMgr health.ComponentManager) (Producer, error) {
	log = log.With(zap.String("component", "kafka-producer"))

	p, raw, err := newProducer(conf, log)
	if err != nil {
		return nil, err
	}

	markReady := componentMgr.AddComponent("kafka-producer")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := waitForBrokers(ctx, raw, log, conf.Producer.ReadinessTimeoutSeconds, conf.Producer.FailOnBrokerError); err != nil {
				return err
			}
			markReady()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			flushMs := int(conf.Producer.FlushTimeout.Milliseconds())
			if remaining := p.Flush(flushMs); remaining > 0 {
				log.Warn("messages still unflushed on shutdown", zap.Int("remaining", remaining))
			}
			p.Close()
			return nil
		},
	})

	return p, nil
}

var _ metadataProvider = (*kafka.Producer)(nil)
