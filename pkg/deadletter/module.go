package deadletter

import (
	"context"
	"embed"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo/migrations"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// NewDeadLetterModule provides the recorder and the retention sweeper over
// the Mongo store.
func NewDeadLetterModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			newMongoStore,
			func(s *mongoStore) Store { return s },
			func(s *mongoStore) RetentionStore { return s },
			NewRecorder,
			NewSweeper,
		),
		fx.Invoke(runMigrations),
	)
}

func runMigrations(lc fx.Lifecycle, log *zap.Logger, migrator migrations.Migrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("running dead-letter migrations")
			if err := migrator.UpFromFS("deadletter_migrations", migrationsFS, "migrations"); err != nil {
				return err
			}
			log.Info("dead-letter migrations completed")
			return nil
		},
	})
}
