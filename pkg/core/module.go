package core

import (
	"go.uber.org/fx"

	"github.com/mirthwood/worldevents/pkg/core/config"
	"github.com/mirthwood/worldevents/pkg/core/health"
	"github.com/mirthwood/worldevents/pkg/core/logger"
)

// NewCoreModule bundles the ambient pieces every entrypoint needs: logging,
// configuration and readiness tracking.
func NewCoreModule() fx.Option {
	return fx.Options(
		logger.NewZapLoggingModule(),
		config.NewConfigModule(),
		health.NewReadinessModule(),
	)
}
