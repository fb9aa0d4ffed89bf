package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"notary/internal/config"
	"notary/internal/logger"
	"notary/pkg/services"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Open returns the store selected by cfg.StoreDriver. SQL stores are
// migrated before they are returned.
func Open(ctx context.Context, cfg *config.Config) (services.Store, error) {
	const op = "store.Open"

	switch cfg.StoreDriver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverFirestore:
		return NewFirestoreStore(ctx, FirestoreOptions{
			ProjectID:          cfg.FirestoreProject,
			InvoicesCollection: cfg.FirestoreInvoicesCollection,
			DeedsCollection:    cfg.FirestoreDeedsCollection,
		})
	case config.DriverSQLite, config.DriverPostgres:
		db, err := OpenGorm(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		s := NewGormStore(db)
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%s: unknown store driver %q", op, cfg.StoreDriver)
	}
}

// OpenGorm connects to the SQL database named by cfg. Postgres connections
// are retried while the server comes up.
func OpenGorm(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	log := logger.WithComponent("store")

	level := gormlogger.Silent
	if cfg.DBDebug {
		level = gormlogger.Info
	}
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	if cfg.StoreDriver == config.DriverSQLite {
		log.Debug().Str("path", cfg.SQLitePath).Msg("Opening sqlite database")
		db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return db, nil
	}

	dsn := NormalizeDSN(cfg.DatabaseDSN)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty")
	}
	log.Info().Str("dsn", MaskDSN(dsn)).Msg("Connecting to postgres")

	var (
		db  *gorm.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("Retrying database connection")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	if err := db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}
