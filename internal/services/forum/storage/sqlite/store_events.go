package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agoraledger/forum/internal/services/forum/core/filter"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

const eventColumns = `seq, event_type, entity_type, entity_id, actor_id, request_id,
       block, timestamp_ms, payload_json, event_hash, prev_hash, chain_hash`

// Head returns the journal position visible to the transaction.
func (t *tx) Head() (storage.Head, error) {
	var (
		seq   int64
		chain string
	)
	err := t.q.QueryRowContext(t.ctx,
		`SELECT seq, chain_hash FROM events ORDER BY seq DESC LIMIT 1`,
	).Scan(&seq, &chain)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Head{}, nil
	}
	if err != nil {
		return storage.Head{}, fmt.Errorf("get journal head: %w", err)
	}
	return storage.Head{Seq: uint64(seq), ChainHash: chain}, nil
}

// AppendEvent seals evt after the current head and inserts it.
func (t *tx) AppendEvent(evt event.Event) (event.Event, error) {
	head, err := t.Head()
	if err != nil {
		return event.Event{}, err
	}
	sealed, err := storage.SealNext(head, evt)
	if err != nil {
		return event.Event{}, err
	}
	if _, err := t.q.ExecContext(t.ctx, `
INSERT INTO events (`+eventColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(sealed.Seq), string(sealed.Type), sealed.EntityType, sealed.EntityID,
		sealed.ActorID, sealed.RequestID, int64(sealed.Block), sealed.Timestamp.UnixMilli(),
		sealed.PayloadJSON, sealed.Hash, sealed.PrevHash, sealed.ChainHash,
	); err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	return sealed, nil
}

// ListEvents implements storage.Ledger.
func (s *Store) ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error) {
	if s == nil || s.sqlDB == nil {
		return storage.EventPage{}, storage.ErrClosed
	}
	cond, err := filter.ParseEventFilter(req.Filter)
	if err != nil {
		return storage.EventPage{}, err
	}
	if req.PastEnd() {
		return storage.EventPage{}, nil
	}
	limit := storage.NormalizeLimit(req.Limit)

	query := `SELECT ` + eventColumns + ` FROM events WHERE seq > ?`
	params := []any{int64(req.AfterSeq)}
	if cond.Clause != "" {
		query += " AND " + cond.Clause
		params = append(params, sqlParams(cond.Params)...)
	}
	query += " ORDER BY seq LIMIT ?"
	params = append(params, limit+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return storage.EventPage{}, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var page storage.EventPage
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return storage.EventPage{}, err
		}
		if len(page.Events) == limit {
			page.HasMore = true
			break
		}
		page.Events = append(page.Events, evt)
	}
	if err := rows.Err(); err != nil {
		return storage.EventPage{}, fmt.Errorf("iterate events: %w", err)
	}
	return page, nil
}

// sqlParams converts filter literals to driver-friendly values.
func sqlParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		if v, ok := p.(uint64); ok {
			out[i] = int64(v)
			continue
		}
		out[i] = p
	}
	return out
}

func scanEvent(rows *sql.Rows) (event.Event, error) {
	var (
		evt         event.Event
		seq         int64
		eventType   string
		block       int64
		timestampMS int64
	)
	if err := rows.Scan(&seq, &eventType, &evt.EntityType, &evt.EntityID, &evt.ActorID, &evt.RequestID,
		&block, &timestampMS, &evt.PayloadJSON, &evt.Hash, &evt.PrevHash, &evt.ChainHash); err != nil {
		return event.Event{}, fmt.Errorf("scan event: %w", err)
	}
	evt.Seq = uint64(seq)
	evt.Type = event.Type(eventType)
	evt.Block = uint64(block)
	evt.Timestamp = fromMillis(timestampMS)
	return evt, nil
}
