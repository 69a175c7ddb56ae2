// Package sqlite persists the forum ledger and its journal in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agoraledger/forum/internal/platform/storage/sqlitemigrate"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store is a storage.Ledger backed by a SQLite database file.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.Ledger = (*Store)(nil)

// Open opens the ledger database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.LedgerFS, "ledger"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
//
// Close is nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// View implements storage.Ledger. Reads run inside a transaction that is
// always rolled back so they observe one snapshot.
func (s *Store) View(ctx context.Context, fn func(forum.Reader) error) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(&tx{ctx: ctx, q: sqlTx})
}

// Update implements storage.Ledger.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if s == nil || s.sqlDB == nil {
		return storage.ErrClosed
	}
	sqlTx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&tx{ctx: ctx, q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Head implements storage.Ledger.
func (s *Store) Head(ctx context.Context) (storage.Head, error) {
	if s == nil || s.sqlDB == nil {
		return storage.Head{}, storage.ErrClosed
	}
	return (&tx{ctx: ctx, q: s.sqlDB}).Head()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// tx implements storage.Tx over one SQL transaction.
type tx struct {
	ctx context.Context
	q   querier
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// fromMillis reverses UnixMilli for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
