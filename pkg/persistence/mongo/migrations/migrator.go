package migrations

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Migrator applies versioned index migrations. Each store package embeds
// its own migration files and tracks its version in its own collection, so
// stores migrate independently.
type Migrator interface {
	// UpFromFS runs all pending migrations from an embedded filesystem.
	UpFromFS(collectionName string, fsys fs.FS, dirPath string) error
	// Version returns the current migration version for the tracking
	// collection.
	Version(collectionName string, fsys fs.FS, dirPath string) (uint, bool, error)
}

type migrator struct {
	database       *mongodriver.Database
	log            *zap.Logger
	lockingTimeout int
}

func newMigrator(database *mongodriver.Database, log *zap.Logger, lockingTimeout int) Migrator {
	return &migrator{
		database:       database,
		log:            log,
		lockingTimeout: lockingTimeout,
	}
}

func (m *migrator) createInstance(collectionName string, fsys fs.FS, dirPath string) (*migrate.Migrate, error) {
	if collectionName == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("filesystem is required")
	}

	driver, err := mongodb.WithInstance(m.database.Client(), &mongodb.Config{
		DatabaseName:         m.database.Name(),
		MigrationsCollection: collectionName,
		Locking: mongodb.Locking{
			Enabled: true,
			Timeout: m.lockingTimeout, // minutes
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mongodb driver: %w", err)
	}

	sourceDriver, err := iofs.New(fsys, dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	mi, err := migrate.NewWithInstance("iofs", sourceDriver, m.database.Name(), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return mi, nil
}

func (m *migrator) UpFromFS(collectionName string, fsys fs.FS, dirPath string) error {
	m.log.Info("running migrations up from embedded FS",
		zap.String("collection", collectionName),
		zap.String("dir", dirPath))

	mi, err := m.createInstance(collectionName, fsys, dirPath)
	if err != nil {
		return err
	}

	err = mi.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("no migrations to apply", zap.String("collection", collectionName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations up: %w", err)
	}

	version, dirty, err := mi.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	m.log.Info("migrations completed",
		zap.String("collection", collectionName),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

func (m *migrator) Version(collectionName string, fsys fs.FS, dirPath string) (uint, bool, error) {
	mi, err := m.createInstance(collectionName, fsys, dirPath)
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := mi.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}
