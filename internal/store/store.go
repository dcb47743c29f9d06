// Package store persists deduplication runs and their removal audit trail to
// Postgres. Persistence is optional, the CLI and API run fine without a
// database and simply skip recording.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bibliojobs/sift/internal/config"
)

const createSchemaSQL = `CREATE SCHEMA IF NOT EXISTS sift`

type Store struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if !cfg.PersistenceEnabled() {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(resolveGormLogLevel(cfg.LogLevel, cfg.Environment)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}

	maxOpen := cfg.DBMaxConns
	if maxOpen <= 0 {
		maxOpen = 8
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{gdb: gdb, sqlDB: sqlDB}
	if err := store.autoMigrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("auto-migrate schema: %w", err)
	}
	return store, nil
}

func (s *Store) autoMigrate(ctx context.Context) error {
	if err := s.gdb.WithContext(ctx).Exec(createSchemaSQL).Error; err != nil {
		return fmt.Errorf("create sift schema: %w", err)
	}
	if err := s.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...); err != nil {
		return fmt.Errorf("gorm auto-migrate models: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("store is not initialized")
	}
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func resolveGormLogLevel(logLevel, environment string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug", "trace":
		return logger.Info
	case "warn", "warning":
		return logger.Warn
	case "error", "fatal", "panic":
		return logger.Error
	}
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		return logger.Warn
	}
	return logger.Silent
}
