// Package sqlitemigrate applies embedded SQL scripts to SQLite databases,
// recording each script once in schema_migrations.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// Migration is one script loaded from a migration directory. Name is the
// script path relative to the filesystem root and is the bookkeeping key.
type Migration struct {
	Name string
	Up   string
}

// Load reads every *.sql file directly under dir, sorted by file name.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		name := path.Join(dir, entry.Name())
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, Migration{Name: name, Up: UpSection(string(content))})
	}
	slices.SortFunc(out, func(a, b Migration) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// UpSection returns the statements between the Up and Down markers. A script
// without an Up marker is returned whole.
func UpSection(script string) string {
	_, up, ok := strings.Cut(script, upMarker)
	if !ok {
		return script
	}
	up, _, _ = strings.Cut(up, downMarker)
	return up
}

// ApplyMigrations runs the scripts under dir that have not been recorded yet.
// Each script and its bookkeeping row share one transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB, fsys fs.FS, dir string) error {
	if db == nil {
		return errors.New("sql db is required")
	}
	migrations, err := Load(fsys, dir)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	done, err := Applied(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if slices.Contains(done, m.Name) || strings.TrimSpace(m.Up) == "" {
			continue
		}
		if err := apply(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, m Migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.Up); err != nil && !alreadyApplied(err) {
		return fmt.Errorf("exec migration %s: %w", m.Name, err)
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO schema_migrations (name, applied_at) VALUES (?, ?)",
		m.Name, time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.Name, err)
	}
	return nil
}

// alreadyApplied matches DDL errors raised when a schema change already
// exists in a database created before bookkeeping.
func alreadyApplied(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate column name")
}

// Applied lists recorded migration names in application order.
func Applied(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM schema_migrations ORDER BY applied_at, name")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
