// Package storage defines the ledger persistence contract shared by the
// memory, SQLite and Badger backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
)

// ErrNotFound indicates a requested persistence record is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrClosed indicates use of a ledger after Close.
var ErrClosed = errors.New("ledger is closed")

const (
	// DefaultEventPageSize is used when a request does not set a limit.
	DefaultEventPageSize = 100
	// MaxEventPageSize caps a single ListEvents page.
	MaxEventPageSize = 1000
)

// Head is the position of the last journal entry. The zero value is an
// empty journal.
type Head struct {
	Seq       uint64
	ChainHash string
}

// Tx is the read-write view a single command runs against. Writes and
// appended events become visible together when the enclosing Update returns
// nil, and are discarded otherwise.
type Tx interface {
	forum.State
	// Head returns the journal position as of this transaction.
	Head() (Head, error)
	// AppendEvent seals evt onto the journal and returns it with seq and
	// hashes assigned.
	AppendEvent(evt event.Event) (event.Event, error)
}

// ListEventsRequest selects a page of journal entries.
type ListEventsRequest struct {
	// AfterSeq skips entries with seq <= AfterSeq.
	AfterSeq uint64
	// Limit caps the page; zero means DefaultEventPageSize.
	Limit int
	// Filter is an AIP-160 expression over type, entity_type, entity_id,
	// actor_id, request_id, block, seq and ts.
	Filter string
}

// MaxEventSeq is the largest seq a journal entry can carry; SQLite stores
// seq as a signed 64-bit INTEGER.
const MaxEventSeq = math.MaxInt64

// PastEnd reports whether no journal entry can follow AfterSeq.
func (r ListEventsRequest) PastEnd() bool {
	return r.AfterSeq >= MaxEventSeq
}

// EventPage is a page of journal entries in ascending seq order.
type EventPage struct {
	Events  []event.Event
	HasMore bool
}

// Ledger is the persistent forum state plus its journal.
type Ledger interface {
	// View runs fn against a consistent read-only snapshot.
	View(ctx context.Context, fn func(forum.Reader) error) error
	// Update runs fn in a single atomic transaction.
	Update(ctx context.Context, fn func(Tx) error) error
	// ListEvents returns journal entries after req.AfterSeq.
	ListEvents(ctx context.Context, req ListEventsRequest) (EventPage, error)
	// Head returns the last committed journal position.
	Head(ctx context.Context) (Head, error)
	Close() error
}

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultEventPageSize
	}
	return min(limit, MaxEventPageSize)
}

// SealNext seals evt as the entry following head.
func SealNext(head Head, evt event.Event) (event.Event, error) {
	sealed, err := event.Seal(evt, head.Seq+1, head.ChainHash)
	if err != nil {
		return event.Event{}, fmt.Errorf("seal event: %w", err)
	}
	return sealed, nil
}
