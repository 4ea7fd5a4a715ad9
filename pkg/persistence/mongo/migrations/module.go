package migrations

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo"
)

// NewMigrationsModule provides the Migrator. Store packages invoke it from
// their own lifecycle hooks with their embedded migration files.
func NewMigrationsModule() fx.Option {
	return fx.Provide(
		newConfig,
		provideMigrator,
	)
}

func provideMigrator(log *zap.Logger, conf Config, m mongo.Admin) Migrator {
	return newMigrator(m.GetDatabase(), log, conf.LockingTimeout)
}
