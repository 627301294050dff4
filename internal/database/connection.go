package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mquintana/divscope/internal/config"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DB wraps the embedded SQLite store holding cache entries and usage
// counters. A single connection is enough for the intended one-process
// deployment; SQLite serializes writers natively.
type DB struct {
	SQL    *sql.DB
	logger *slog.Logger
}

func NewConnection(cfg *config.DataConfig, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.CacheDB), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.CacheDB+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping sqlite store: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to run migrations: %w", err)
	}

	logger.Info("sqlite store opened", slog.String("path", cfg.CacheDB))

	return &DB{SQL: db, logger: logger}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (db *DB) Close() {
	db.logger.Info("closing sqlite store")
	db.SQL.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.SQL.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
