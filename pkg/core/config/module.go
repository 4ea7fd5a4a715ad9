package config

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewConfigModule provides AppConfig from the environment and a *viper.Viper
// loaded from the resolved config file. Every package reads its own section
// through v.Sub.
func NewConfigModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newAppConfig,
			newViper,
		),
		fx.Invoke(func(logger *zap.Logger, conf AppConfig) {
			logger.Info("loaded application configuration",
				zap.String("service", conf.ServiceName),
				zap.String("version", conf.ServiceVersion),
				zap.String("environment", conf.Environment),
				zap.String("configFile", conf.ConfigFile),
			)
		}),
	)
}
