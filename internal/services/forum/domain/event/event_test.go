package event

import (
	"errors"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Register(Definition{Type: TypePostAdded, EntityType: EntityPost}); err != nil {
		t.Fatalf("register: %v", err)
	}
	return registry
}

func TestRegistryValidateForAppendNormalizes(t *testing.T) {
	registry := newTestRegistry(t)
	evt, err := registry.ValidateForAppend(Event{
		Type:        " post.added ",
		EntityID:    " 7 ",
		ActorID:     "alice",
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("x", 3600)),
		PayloadJSON: []byte(`{"b":2, "a":1}`),
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if evt.EntityType != EntityPost || evt.EntityID != "7" {
		t.Fatalf("addressing not normalized: %+v", evt)
	}
	if evt.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not UTC: %v", evt.Timestamp)
	}
	if string(evt.PayloadJSON) != `{"a":1,"b":2}` {
		t.Fatalf("payload = %s", evt.PayloadJSON)
	}
}

func TestRegistryValidateForAppendErrors(t *testing.T) {
	registry := newTestRegistry(t)
	base := Event{
		Type:      TypePostAdded,
		EntityID:  "1",
		Timestamp: time.Unix(1, 0),
	}

	tests := []struct {
		name   string
		mutate func(*Event)
		want   error
	}{
		{name: "missing type", mutate: func(e *Event) { e.Type = "" }, want: ErrTypeRequired},
		{name: "unknown type", mutate: func(e *Event) { e.Type = "post.deleted" }, want: ErrTypeUnknown},
		{name: "entity mismatch", mutate: func(e *Event) { e.EntityType = EntityThread }, want: ErrEntityTypeMismatch},
		{name: "missing entity id", mutate: func(e *Event) { e.EntityID = "" }, want: ErrEntityIDRequired},
		{name: "missing timestamp", mutate: func(e *Event) { e.Timestamp = time.Time{} }, want: ErrTimestampRequired},
		{name: "bad payload", mutate: func(e *Event) { e.PayloadJSON = []byte("{") }, want: ErrPayloadInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt := base
			tt.mutate(&evt)
			if _, err := registry.ValidateForAppend(evt); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSealAndVerifyChain(t *testing.T) {
	first, err := Seal(Event{
		Type:        TypePostAdded,
		EntityType:  EntityPost,
		EntityID:    "1",
		ActorID:     "alice",
		Block:       3,
		Timestamp:   time.UnixMilli(1000).UTC(),
		PayloadJSON: []byte(`{"post_id":1}`),
	}, 1, "")
	if err != nil {
		t.Fatalf("seal first: %v", err)
	}
	second, err := Seal(Event{
		Type:        TypePostAdded,
		EntityType:  EntityPost,
		EntityID:    "2",
		ActorID:     "bob",
		Block:       4,
		Timestamp:   time.UnixMilli(2000).UTC(),
		PayloadJSON: []byte(`{"post_id":2}`),
	}, 2, first.ChainHash)
	if err != nil {
		t.Fatalf("seal second: %v", err)
	}

	if err := Verify(first, 0, ""); err != nil {
		t.Fatalf("verify first: %v", err)
	}
	if err := Verify(second, first.Seq, first.ChainHash); err != nil {
		t.Fatalf("verify second: %v", err)
	}

	tampered := second
	tampered.PayloadJSON = []byte(`{"post_id":3}`)
	if err := Verify(tampered, first.Seq, first.ChainHash); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("expected ErrChainBroken for tampered payload, got %v", err)
	}
	if err := Verify(second, 0, ""); !errors.Is(err, ErrChainBroken) {
		t.Fatalf("expected ErrChainBroken for gap, got %v", err)
	}
}

func TestContentHashIgnoresJournalPosition(t *testing.T) {
	evt := Event{Type: TypePostAdded, EntityType: EntityPost, EntityID: "1", Timestamp: time.UnixMilli(5)}
	a, err := ContentHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	evt.Seq = 99
	evt.PrevHash = "abc"
	b, err := ContentHash(evt)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a != b {
		t.Fatalf("content hash changed with position: %s != %s", a, b)
	}
}
