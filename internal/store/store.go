// Package store owns the SQLite database that holds sweep history, and the
// per-module schema versions applied to it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Defaults applied to zero-valued Options.
const (
	DefaultPath        = "niccommander.db"
	DefaultBusyTimeout = 5 * time.Second
)

// Options configures Open. It maps onto the database.* config keys.
type Options struct {
	Path        string
	BusyTimeout time.Duration

	// Durable switches synchronous from NORMAL to FULL, so a committed
	// sweep survives power loss at the cost of an fsync per write.
	Durable bool
}

// Migration is one schema change owned by a module.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// SQLiteStore is a single-connection SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex // serializes Migrate
}

// Open opens (or creates) the database described by opts and applies its pragmas.
func Open(ctx context.Context, opts Options) (*SQLiteStore, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = DefaultBusyTimeout
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", opts.Path, err)
	}
	// One connection: writes are rare and ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	synchronous := "NORMAL"
	if opts.Durable {
		synchronous = "FULL"
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", opts.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous=" + synchronous,
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite %q: %s: %w", opts.Path, p, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// DB returns the underlying *sql.DB for direct queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate applies the migrations of module that are not yet recorded in
// schema_versions, each in its own transaction, in ascending Version order.
func (s *SQLiteStore) Migrate(ctx context.Context, module string, migrations []Migration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			module_name TEXT    NOT NULL,
			version     INTEGER NOT NULL,
			description TEXT    NOT NULL,
			applied_at  TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (module_name, version)
		)`); err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	applied, err := s.appliedVersions(ctx, module)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := s.apply(ctx, module, m); err != nil {
			return fmt.Errorf("migration %s/%d (%s): %w", module, m.Version, m.Description, err)
		}
	}
	return nil
}

func (s *SQLiteStore) appliedVersions(ctx context.Context, module string) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version FROM schema_versions WHERE module_name = ?`, module)
	if err != nil {
		return nil, fmt.Errorf("read schema versions for %s: %w", module, err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("read schema versions for %s: %w", module, err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (s *SQLiteStore) apply(ctx context.Context, module string, m Migration) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = m.Up(tx); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schema_versions (module_name, version, description) VALUES (?, ?, ?)`,
		module, m.Version, m.Description,
	); err != nil {
		return err
	}
	return tx.Commit()
}
