package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/storagetest"
)

func TestConformance(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Ledger {
		return New()
	})
}

func TestViewIsReadOnly(t *testing.T) {
	ledger := New()
	err := ledger.View(context.Background(), func(r forum.Reader) error {
		w, ok := r.(forum.Writer)
		if !ok {
			return nil
		}
		return w.PutCategory(forum.Category{ID: 1})
	})
	if err == nil {
		t.Fatal("expected write in view to fail")
	}
}

func TestClosedLedger(t *testing.T) {
	ledger := New()
	if err := ledger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	err := ledger.Update(context.Background(), func(storage.Tx) error { return nil })
	if !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
