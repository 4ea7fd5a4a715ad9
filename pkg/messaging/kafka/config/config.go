package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Brokers  string         `mapstructure:"brokers"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Producer ProducerConfig `mapstructure:"producer"`
}

type ConsumerConfig struct {
	Topic           string `mapstructure:"topic"`
	GroupID         string `mapstructure:"group-id"`
	AutoOffsetReset string `mapstructure:"auto-offset-reset"`

	// MaxRetryAttempts bounds in-process redelivery of transient failures
	// before the message is dead-lettered.
	MaxRetryAttempts int           `mapstructure:"max-retry-attempts"`
	MaxRetryBackoff  time.Duration `mapstructure:"max-retry-backoff"`

	// ReadinessTimeoutSeconds bounds the wait for the topic at startup
	// (0 means no timeout).
	ReadinessTimeoutSeconds int  `mapstructure:"readiness-timeout-seconds"`
	FailOnTopicError        bool `mapstructure:"fail-on-topic-error"`

	ChannelBuffer int `mapstructure:"channel-buffer"`
}

type ProducerConfig struct {
	Topic        string        `mapstructure:"topic"`
	FlushTimeout time.Duration `mapstructure:"flush-timeout"`

	ReadinessTimeoutSeconds int  `mapstructure:"readiness-timeout-seconds"`
	FailOnBrokerError       bool `mapstructure:"fail-on-broker-error"`
}

func NewKafkaConfigModule() fx.Option {
	return fx.Provide(
		newConfig,
	)
}

func newConfig(v *viper.Viper, logger *zap.Logger) (Config, error) {
	var cfg Config
	if sub := v.Sub("kafka"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load kafka config: %w", err)
		}
	}

	if cfg.Consumer.Topic == "" {
		cfg.Consumer.Topic = "world.events"
	}
	if cfg.Consumer.GroupID == "" {
		cfg.Consumer.GroupID = "worldevents-worker"
	}
	if cfg.Consumer.AutoOffsetReset == "" {
		cfg.Consumer.AutoOffsetReset = "earliest"
	}
	if cfg.Consumer.MaxRetryAttempts == 0 {
		cfg.Consumer.MaxRetryAttempts = 5
	}
	if cfg.Consumer.MaxRetryBackoff == 0 {
		cfg.Consumer.MaxRetryBackoff = 30 * time.Second
	}
	if cfg.Consumer.ReadinessTimeoutSeconds == 0 {
		cfg.Consumer.ReadinessTimeoutSeconds = 60
	}
	if cfg.Consumer.ChannelBuffer == 0 {
		cfg.Consumer.ChannelBuffer = 64
	}

	if cfg.Producer.Topic == "" {
		cfg.Producer.Topic = cfg.Consumer.Topic
	}
	if cfg.Producer.FlushTimeout == 0 {
		cfg.Producer.FlushTimeout = 10 * time.Second
	}
	if cfg.Producer.ReadinessTimeoutSeconds == 0 {
		cfg.Producer.ReadinessTimeoutSeconds = 60
	}

	logger.Info("loaded kafka config",
		zap.String("brokers", cfg.Brokers),
		zap.String("topic", cfg.Consumer.Topic),
		zap.String("group_id", cfg.Consumer.GroupID))
	return cfg, nil
}
