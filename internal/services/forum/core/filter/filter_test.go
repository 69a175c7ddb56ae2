package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

func TestParseEventFilterEmpty(t *testing.T) {
	cond, err := ParseEventFilter("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "" || len(cond.Params) != 0 {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseEventFilterSQL(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		clause string
		params []any
	}{
		{
			name:   "equality",
			filter: `type = "post.added"`,
			clause: "event_type = ?",
			params: []any{"post.added"},
		},
		{
			name:   "and",
			filter: `entity_type = "thread" AND actor_id = "alice"`,
			clause: "(entity_type = ? AND actor_id = ?)",
			params: []any{"thread", "alice"},
		},
		{
			name:   "or",
			filter: `type = "post.added" OR type = "post.moderated"`,
			clause: "(event_type = ? OR event_type = ?)",
			params: []any{"post.added", "post.moderated"},
		},
		{
			name:   "integer",
			filter: `seq > 10`,
			clause: "seq > ?",
			params: []any{uint64(10)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseEventFilter(tt.filter)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if cond.Clause != tt.clause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tt.clause)
			}
			if !reflect.DeepEqual(cond.Params, tt.params) {
				t.Fatalf("params = %#v, want %#v", cond.Params, tt.params)
			}
		})
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	if _, err := Parse(`category_title = "x"`); err == nil {
		t.Fatal("expected error for undeclared field")
	}
}

func TestFilterMatch(t *testing.T) {
	evt := event.Event{
		Seq:        5,
		Type:       event.TypePostAdded,
		EntityType: event.EntityPost,
		EntityID:   "9",
		ActorID:    "alice",
		Block:      40,
		Timestamp:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		filter string
		want   bool
	}{
		{filter: ``, want: true},
		{filter: `type = "post.added"`, want: true},
		{filter: `type = "post.moderated"`, want: false},
		{filter: `actor_id = "alice" AND block >= 40`, want: true},
		{filter: `actor_id = "bob" OR seq < 6`, want: true},
		{filter: `entity_id != "9"`, want: false},
		{filter: `seq > 5`, want: false},
	}
	for _, tt := range tests {
		f, err := Parse(tt.filter)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.filter, err)
		}
		if got := f.Match(evt); got != tt.want {
			t.Fatalf("match %q = %v, want %v", tt.filter, got, tt.want)
		}
	}
}
