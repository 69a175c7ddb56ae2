package event

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/agoraledger/forum/internal/services/forum/core/encoding"
)

// ErrChainBroken indicates a journal whose hashes do not link up.
var ErrChainBroken = errors.New("event chain broken")

type contentEnvelope struct {
	Type        Type            `json:"type"`
	EntityType  string          `json:"entity_type"`
	EntityID    string          `json:"entity_id"`
	ActorID     string          `json:"actor_id"`
	RequestID   string          `json:"request_id,omitempty"`
	Block       uint64          `json:"block"`
	TimestampMS int64           `json:"timestamp_ms"`
	Payload     json.RawMessage `json:"payload"`
}

type chainEnvelope struct {
	Seq      uint64 `json:"seq"`
	Hash     string `json:"hash"`
	PrevHash string `json:"prev_hash"`
}

// ContentHash hashes the event's content, excluding its position in the
// journal.
func ContentHash(evt Event) (string, error) {
	payload := evt.PayloadJSON
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	return encoding.ContentHash(contentEnvelope{
		Type:        evt.Type,
		EntityType:  evt.EntityType,
		EntityID:    evt.EntityID,
		ActorID:     evt.ActorID,
		RequestID:   evt.RequestID,
		Block:       evt.Block,
		TimestampMS: evt.Timestamp.UnixMilli(),
		Payload:     json.RawMessage(payload),
	})
}

// Seal assigns seq and hashes to evt so that it extends a journal whose last
// chain hash is prevChainHash. An empty prevChainHash starts a new chain.
func Seal(evt Event, seq uint64, prevChainHash string) (Event, error) {
	hash, err := ContentHash(evt)
	if err != nil {
		return Event{}, fmt.Errorf("content hash: %w", err)
	}
	chain, err := encoding.ContentHash(chainEnvelope{Seq: seq, Hash: hash, PrevHash: prevChainHash})
	if err != nil {
		return Event{}, fmt.Errorf("chain hash: %w", err)
	}
	evt.Seq = seq
	evt.Hash = hash
	evt.PrevHash = prevChainHash
	evt.ChainHash = chain
	return evt, nil
}

// Verify checks that evt directly follows a journal entry with the given seq
// and chain hash and that its stored hashes match its content.
func Verify(evt Event, prevSeq uint64, prevChainHash string) error {
	if evt.Seq != prevSeq+1 {
		return fmt.Errorf("%w: seq %d follows %d", ErrChainBroken, evt.Seq, prevSeq)
	}
	if evt.PrevHash != prevChainHash {
		return fmt.Errorf("%w: seq %d prev hash mismatch", ErrChainBroken, evt.Seq)
	}
	sealed, err := Seal(evt, evt.Seq, prevChainHash)
	if err != nil {
		return err
	}
	if sealed.Hash != evt.Hash {
		return fmt.Errorf("%w: seq %d content hash mismatch", ErrChainBroken, evt.Seq)
	}
	if sealed.ChainHash != evt.ChainHash {
		return fmt.Errorf("%w: seq %d chain hash mismatch", ErrChainBroken, evt.Seq)
	}
	return nil
}
