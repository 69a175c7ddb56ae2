package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/agoraledger/forum/internal/platform/storage/sqlitemigrate"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/storagetest"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Ledger {
		return openTestStore(t)
	})
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReopenKeepsStateAndMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Update(ctx, func(tx storage.Tx) error {
		return tx.PutCategory(storagetest.SampleCategory())
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	applied, err := sqlitemigrate.Applied(ctx, store.sqlDB)
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if len(applied) != 1 || applied[0] != "ledger/0001_forum.sql" {
		t.Fatalf("applied = %v", applied)
	}
	err = store.View(ctx, func(r forum.Reader) error {
		_, ok, err := r.Category(storagetest.SampleCategory().ID)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatal("category missing after reopen")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCloseIsNilSafe(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}
