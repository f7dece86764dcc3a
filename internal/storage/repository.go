package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spendbook/internal/kv"
	applog "spendbook/internal/log"

	_ "modernc.org/sqlite"
)

const (
	getQuery    = `SELECT value FROM kv WHERE key = ?`
	upsertQuery = `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	deleteQuery = `DELETE FROM kv WHERE key = ?`
)

// SQLiteStore keeps key-value pairs in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *applog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// the migrations. A nil logger falls back to the default storage logger.
func NewSQLiteStore(dbPath string, logger *applog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = applog.Default(applog.ComponentStorage)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.WithComponent(applog.ComponentStorage),
	}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get implements kv.Reader
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	if strings.TrimSpace(key) == "" {
		return "", false, kv.ErrEmptyKey
	}
	var value string
	err := s.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get key %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements kv.Writer
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return kv.ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return fmt.Errorf("set key %s: %w", key, err)
	}

	s.logger.DebugContext(ctx, "Value saved to SQLite", applog.FieldKey, key, "bytes", len(value))
	return nil
}

// Remove implements kv.Remover
func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return kv.ErrEmptyKey
	}
	if _, err := s.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("remove key %s: %w", key, err)
	}
	return nil
}
