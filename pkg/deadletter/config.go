package deadletter

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Retention is how long a record stays before the sweeper removes it.
	Retention     time.Duration `mapstructure:"retention"`
	SweepInterval time.Duration `mapstructure:"sweep-interval"`
}

func newConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if sub := v.Sub("deadletter"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load deadletter config: %w", err)
		}
	}

	if cfg.Retention == 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Hour
	}
	return cfg, nil
}
