package sqlitemigrate

import (
	"context"
	"database/sql"
	"slices"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func applied(t *testing.T, db *sql.DB) []string {
	t.Helper()
	names, err := Applied(context.Background(), db)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	return names
}

func hasTable(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n); err != nil {
		t.Fatalf("lookup table: %v", err)
	}
	return n == 1
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"no markers", "CREATE TABLE a (id INTEGER);", "CREATE TABLE a (id INTEGER);"},
		{"up only", "-- +migrate Up\nCREATE TABLE a (id INTEGER);", "\nCREATE TABLE a (id INTEGER);"},
		{"up and down", "-- +migrate Up\nCREATE TABLE a;\n-- +migrate Down\nDROP TABLE a;", "\nCREATE TABLE a;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpSection(tt.script); got != tt.want {
				t.Fatalf("UpSection = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyMigrationsOncePerScript(t *testing.T) {
	db := memoryDB(t)
	fsys := fstest.MapFS{
		"ledger/0001_events.sql":  {Data: []byte("-- +migrate Up\nCREATE TABLE events (seq INTEGER PRIMARY KEY);\n-- +migrate Down\nDROP TABLE events;")},
		"ledger/0002_records.sql": {Data: []byte("CREATE TABLE records (key TEXT PRIMARY KEY);")},
		"ledger/README.md":        {Data: []byte("not a migration")},
	}
	for range 2 {
		if err := ApplyMigrations(context.Background(), db, fsys, "ledger"); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	want := []string{"ledger/0001_events.sql", "ledger/0002_records.sql"}
	if got := applied(t, db); !slices.Equal(got, want) {
		t.Fatalf("applied = %v, want %v", got, want)
	}
	if !hasTable(t, db, "events") || !hasTable(t, db, "records") {
		t.Fatal("expected migrated tables")
	}
}

func TestApplyMigrationsLeavesFailedScriptUnrecorded(t *testing.T) {
	db := memoryDB(t)
	broken := fstest.MapFS{"0001_posts.sql": {Data: []byte("CREAT TABLE posts (id INTEGER);")}}
	if err := ApplyMigrations(context.Background(), db, broken, ""); err == nil {
		t.Fatal("expected syntax error")
	}
	if got := applied(t, db); len(got) != 0 {
		t.Fatalf("applied = %v, want none", got)
	}

	fixed := fstest.MapFS{"0001_posts.sql": {Data: []byte("CREATE TABLE posts (id INTEGER);")}}
	if err := ApplyMigrations(context.Background(), db, fixed, ""); err != nil {
		t.Fatalf("apply fixed: %v", err)
	}
	if got := applied(t, db); !slices.Equal(got, []string{"0001_posts.sql"}) {
		t.Fatalf("applied = %v", got)
	}
}

func TestApplyMigrationsToleratesExistingSchema(t *testing.T) {
	db := memoryDB(t)
	if _, err := db.Exec("CREATE TABLE threads (id INTEGER)"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fsys := fstest.MapFS{"0001_threads.sql": {Data: []byte("CREATE TABLE threads (id INTEGER);")}}
	if err := ApplyMigrations(context.Background(), db, fsys, "."); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := applied(t, db); len(got) != 1 {
		t.Fatalf("applied = %v", got)
	}
}

func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(context.Background(), nil, fstest.MapFS{}, ""); err == nil {
		t.Fatal("expected error for nil db")
	}
}
