package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spec-kit/incident-service/internal/config"
)

// SQLite wraps an embedded gorm database used when DB_DRIVER=sqlite.
type SQLite struct {
	DB *gorm.DB
}

// NewSQLite opens (and creates if needed) the database file at cfg.Path.
func NewSQLite(ctx context.Context, cfg config.SQLiteConfig, logger *zap.Logger) (*SQLite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, fmt.Errorf("SQLITE_PATH is required when DB_DRIVER=sqlite")
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory %q: %w", dir, err)
			}
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// sqlite serialises writers; one connection keeps conditional updates ordered.
	sqlDB.SetMaxOpenConns(1)

	logger.Info("database opened", zap.String("driver", "sqlite"), zap.String("path", path))
	return &SQLite{DB: db}, nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() {
	if s == nil || s.DB == nil {
		return
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// Ping verifies the database file is usable.
func (s *SQLite) Ping(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return fmt.Errorf("sqlite database not configured")
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
