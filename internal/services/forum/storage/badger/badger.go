// Package badger provides a ledger backend on an embedded Badger key-value
// store, laid out as runtime storage items with SCALE encoded values.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/agoraledger/forum/internal/services/forum/core/filter"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// Config configures the Badger ledger.
type Config struct {
	// Path is the database directory. Required unless InMemory is set.
	Path string
	// InMemory keeps all data in memory; nothing is written to disk.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives Badger's internal logs. Nil disables them.
	Logger *log.Logger
}

type badgerLogger struct {
	logger *log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Printf("badger error: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Printf("badger warning: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Printf("badger: "+format, args...)
}

func (l *badgerLogger) Debugf(string, ...interface{}) {}

// Store is a storage.Ledger backed by Badger.
type Store struct {
	db *badger.DB
}

var _ storage.Ledger = (*Store)(nil)

// Open opens or creates the ledger described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent ledger")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create ledger directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger ledger: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens an empty in-memory ledger.
func OpenInMemory() (*Store, error) {
	return Open(Config{InMemory: true})
}

// Close closes the database. Safe on a nil store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if s == nil || s.db == nil || s.db.IsClosed() {
		return storage.ErrClosed
	}
	return ctx.Err()
}

// View implements storage.Ledger. Writes attempted through the reader fail.
func (s *Store) View(ctx context.Context, fn func(forum.Reader) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Update implements storage.Ledger.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&tx{txn: txn})
	})
}

// Head implements storage.Ledger.
func (s *Store) Head(ctx context.Context) (storage.Head, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Head{}, err
	}
	var head storage.Head
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		head, err = (&tx{txn: txn}).Head()
		return err
	})
	return head, err
}

// ListEvents implements storage.Ledger. Entries are scanned in seq order
// from AfterSeq and matched against the filter in process.
func (s *Store) ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.EventPage{}, err
	}
	f, err := filter.Parse(req.Filter)
	if err != nil {
		return storage.EventPage{}, err
	}
	if req.PastEnd() {
		return storage.EventPage{}, nil
	}
	limit := storage.NormalizeLimit(req.Limit)

	var page storage.EventPage
	err = s.db.View(func(txn *badger.Txn) error {
		prefix := itemPrefix(itemJournal)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(journalKey(req.AfterSeq + 1)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec eventRecord
			if err := it.Item().Value(func(val []byte) error {
				return decode(val, &rec)
			}); err != nil {
				return fmt.Errorf("read journal entry: %w", err)
			}
			if !f.Match(rec.Event) {
				continue
			}
			if len(page.Events) == limit {
				page.HasMore = true
				return nil
			}
			page.Events = append(page.Events, rec.Event)
		}
		return nil
	})
	if err != nil {
		return storage.EventPage{}, err
	}
	return page, nil
}
