package idempotency

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// CacheCapacity bounds the in-process cache entry count.
	// Default: 4096
	CacheCapacity int `mapstructure:"cache-capacity"`

	// CacheTTL bounds how long an in-process cache entry suppresses
	// duplicates before the durable registry is consulted again.
	// Default: 10 minutes
	CacheTTL time.Duration `mapstructure:"cache-ttl"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{}

	if sub := v.Sub("idempotency"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load idempotency config: %w", err)
		}
	}

	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = 4096
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	return cfg, nil
}
