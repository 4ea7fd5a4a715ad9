package world

import (
	"context"
	"embed"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo/migrations"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// NewWorldModule provides the world state repositories.
func NewWorldModule() fx.Option {
	return fx.Options(
		fx.Provide(
			NewLocationRepository,
			NewDescriptionRepository,
			NewNPCRepository,
		),
		fx.Invoke(runMigrations),
	)
}

func runMigrations(lc fx.Lifecycle, log *zap.Logger, migrator migrations.Migrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("running world migrations")
			if err := migrator.UpFromFS("world_migrations", migrationsFS, "migrations"); err != nil {
				return err
			}
			log.Info("world migrations completed")
			return nil
		},
	})
}
