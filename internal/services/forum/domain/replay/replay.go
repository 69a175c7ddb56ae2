// Package replay rebuilds forum state from the event journal and checks the
// journal's hash chain.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

const defaultPageSize = 200

var (
	// ErrEventStoreRequired indicates a missing event source.
	ErrEventStoreRequired = errors.New("event store is required")
	// ErrTargetRequired indicates a missing target ledger.
	ErrTargetRequired = errors.New("target ledger is required")
	// ErrDiverged indicates a target whose journal is not a prefix of the
	// source journal.
	ErrDiverged = errors.New("target journal diverges from source")
)

// EventStore lists journal entries in seq order.
type EventStore interface {
	ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error)
}

// Options configures replay behavior.
type Options struct {
	// UntilSeq stops after this seq. Zero replays everything.
	UntilSeq uint64
	PageSize int
}

// Result captures replay outcomes.
type Result struct {
	LastSeq   uint64
	ChainHash string
	Applied   int
}

// Verify walks the whole journal and checks every link of the chain.
func Verify(ctx context.Context, store EventStore, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	var result Result
	err := walk(ctx, store, result.LastSeq, options, func(events []event.Event) error {
		for _, evt := range events {
			if err := event.Verify(evt, result.LastSeq, result.ChainHash); err != nil {
				return err
			}
			result.LastSeq = evt.Seq
			result.ChainHash = evt.ChainHash
			result.Applied++
		}
		return nil
	})
	return result, err
}

// Replay applies the source journal onto target, resuming after the target's
// own head. Each page commits in one target transaction; every re-sealed
// entry must reproduce the source chain hash.
func Replay(ctx context.Context, store EventStore, target storage.Ledger, options Options) (Result, error) {
	if store == nil {
		return Result{}, ErrEventStoreRequired
	}
	if target == nil {
		return Result{}, ErrTargetRequired
	}
	head, err := target.Head(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("target head: %w", err)
	}
	if err := ensurePrefix(ctx, store, head); err != nil {
		return Result{}, err
	}
	result := Result{LastSeq: head.Seq, ChainHash: head.ChainHash}

	err = walk(ctx, store, result.LastSeq, options, func(events []event.Event) error {
		next := result
		err := target.Update(ctx, func(tx storage.Tx) error {
			for _, evt := range events {
				if err := event.Verify(evt, next.LastSeq, next.ChainHash); err != nil {
					return err
				}
				appended, err := tx.AppendEvent(evt)
				if err != nil {
					return err
				}
				if appended.ChainHash != evt.ChainHash {
					return fmt.Errorf("%w: seq %d re-sealed to a different chain hash", event.ErrChainBroken, evt.Seq)
				}
				if err := forum.Apply(tx, appended); err != nil {
					return fmt.Errorf("apply seq %d: %w", evt.Seq, err)
				}
				next.LastSeq = appended.Seq
				next.ChainHash = appended.ChainHash
				next.Applied++
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	})
	return result, err
}

// ensurePrefix checks that the source journal holds the target's head entry.
func ensurePrefix(ctx context.Context, store EventStore, head storage.Head) error {
	if head.Seq == 0 {
		return nil
	}
	page, err := store.ListEvents(ctx, storage.ListEventsRequest{AfterSeq: head.Seq - 1, Limit: 1})
	if err != nil {
		return fmt.Errorf("list events after %d: %w", head.Seq-1, err)
	}
	if len(page.Events) == 0 || page.Events[0].Seq != head.Seq {
		return fmt.Errorf("%w: source has no entry %d", ErrDiverged, head.Seq)
	}
	if page.Events[0].ChainHash != head.ChainHash {
		return fmt.Errorf("%w: chain hash mismatch at %d", ErrDiverged, head.Seq)
	}
	return nil
}

// walk pages through the journal after afterSeq and hands each page to fn.
func walk(ctx context.Context, store EventStore, afterSeq uint64, options Options, fn func([]event.Event) error) error {
	pageSize := options.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := store.ListEvents(ctx, storage.ListEventsRequest{AfterSeq: afterSeq, Limit: pageSize})
		if err != nil {
			return fmt.Errorf("list events after %d: %w", afterSeq, err)
		}
		events := page.Events
		if options.UntilSeq > 0 {
			for i, evt := range events {
				if evt.Seq > options.UntilSeq {
					events = events[:i]
					break
				}
			}
		}
		if len(events) == 0 {
			return nil
		}
		if err := fn(events); err != nil {
			return err
		}
		afterSeq = events[len(events)-1].Seq
		if !page.HasMore || len(events) < len(page.Events) {
			return nil
		}
	}
}
