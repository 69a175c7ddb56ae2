package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/badger"
	"github.com/agoraledger/forum/internal/services/forum/storage/memory"
	"github.com/agoraledger/forum/internal/services/forum/storage/sqlite"
)

// Ledger backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// LedgerConfig selects and locates the ledger backend.
type LedgerConfig struct {
	Backend    string `env:"FORUM_LEDGER_BACKEND" envDefault:"sqlite"`
	Path       string `env:"FORUM_LEDGER_PATH"`
	SyncWrites bool   `env:"FORUM_LEDGER_SYNC_WRITES"`
}

// Validate reports an unknown backend.
func (c LedgerConfig) Validate() error {
	switch c.backend() {
	case BackendMemory, BackendSQLite, BackendBadger:
		return nil
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Backend)
	}
}

func (c LedgerConfig) backend() string {
	return strings.ToLower(strings.TrimSpace(c.Backend))
}

func (c LedgerConfig) path() string {
	if p := strings.TrimSpace(c.Path); p != "" {
		return p
	}
	if c.backend() == BackendBadger {
		return filepath.Join("data", "forum.badger")
	}
	return filepath.Join("data", "forum.db")
}

// OpenLedger opens the configured backend, creating its parent directory when
// needed.
func OpenLedger(ctx context.Context, cfg LedgerConfig) (storage.Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	backend := cfg.backend()
	if backend == BackendMemory {
		return memory.New(), nil
	}

	path := cfg.path()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	switch backend {
	case BackendBadger:
		store, err := badger.Open(badger.Config{
			Path:       path,
			SyncWrites: cfg.SyncWrites,
			Logger:     log.Default(),
		})
		if err != nil {
			return nil, fmt.Errorf("open badger ledger: %w", err)
		}
		return store, nil
	default:
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		return store, nil
	}
}
