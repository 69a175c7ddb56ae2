package forum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

// requestJSON renders a request message as JSON. Numbers travel as doubles,
// so ids above 2^53 cannot be addressed through this surface.
func requestJSON(in *structpb.Struct) ([]byte, error) {
	if in == nil {
		return []byte("{}"), nil
	}
	data, err := in.MarshalJSON()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeCommandInvalid, "encode request", err)
	}
	return data, nil
}

// decodeRequest decodes a request message into target, rejecting unknown
// fields.
func decodeRequest(in *structpb.Struct, target any) error {
	data, err := requestJSON(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return apperrors.Wrap(apperrors.CodeCommandInvalid, fmt.Sprintf("decode request: %v", err), err)
	}
	return nil
}

// toStruct renders v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

type eventView struct {
	Seq        uint64          `json:"seq"`
	Type       string          `json:"type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorID    string          `json:"actor_id"`
	RequestID  string          `json:"request_id,omitempty"`
	Block      uint64          `json:"block"`
	Timestamp  string          `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
	Hash       string          `json:"hash"`
	PrevHash   string          `json:"prev_hash,omitempty"`
	ChainHash  string          `json:"chain_hash"`
}

func viewEvent(evt event.Event) eventView {
	payload := json.RawMessage(evt.PayloadJSON)
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	return eventView{
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
		ActorID:    evt.ActorID,
		RequestID:  evt.RequestID,
		Block:      evt.Block,
		Timestamp:  evt.Timestamp.UTC().Format(time.RFC3339Nano),
		Payload:    payload,
		Hash:       evt.Hash,
		PrevHash:   evt.PrevHash,
		ChainHash:  evt.ChainHash,
	}
}

func viewEvents(events []event.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, evt := range events {
		out = append(out, viewEvent(evt))
	}
	return out
}
