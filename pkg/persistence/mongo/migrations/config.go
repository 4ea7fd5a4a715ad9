package migrations

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	LockingTimeout int `mapstructure:"locking-timeout"`
}

func (c Config) GetLockingTimeoutDuration() time.Duration {
	return time.Duration(c.LockingTimeout) * time.Minute
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config

	if v.IsSet("mongo.migrations") {
		if err := v.Sub("mongo.migrations").UnmarshalExact(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load mongo migrations config: %w", err)
		}
	}

	if cfg.LockingTimeout == 0 {
		cfg.LockingTimeout = 5
	}

	return cfg, nil
}
