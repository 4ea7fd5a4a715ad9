package idempotency

import (
	"context"
	"embed"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mirthwood/worldevents/pkg/persistence/mongo/migrations"
)

//go:embed migrations/*.json
var migrationsFS embed.FS

// NewIdempotencyModule provides the dual-layer guard: bounded in-process
// cache plus the Mongo-backed durable registry.
func NewIdempotencyModule() fx.Option {
	return fx.Options(
		fx.Provide(
			newConfig,
			provideCache,
			NewMongoRegistry,
			NewGuard,
		),
		fx.Invoke(runMigrations),
	)
}

func provideCache(cfg Config) *Cache {
	return NewCache(cfg.CacheCapacity, cfg.CacheTTL)
}

func runMigrations(lc fx.Lifecycle, log *zap.Logger, migrator migrations.Migrator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("running idempotency migrations")
			if err := migrator.UpFromFS("idempotency_migrations", migrationsFS, "migrations"); err != nil {
				return err
			}
			log.Info("idempotency migrations completed")
			return nil
		},
	})
}
