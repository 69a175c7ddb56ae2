package sink

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

type recordingSink struct {
	name string
	err  error
	got  [][]event.Event
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, events []event.Event) error {
	s.got = append(s.got, events)
	return s.err
}

func sampleEvents() []event.Event {
	return []event.Event{{
		Seq:         3,
		Type:        event.TypePostAdded,
		EntityType:  event.EntityPost,
		EntityID:    "12",
		ActorID:     "alice",
		Block:       40,
		Timestamp:   time.UnixMilli(1_700_000_000_000).UTC(),
		PayloadJSON: []byte(`{"post":{"id":12}}`),
		Hash:        "h",
		ChainHash:   "c",
	}}
}

func TestLogSinkWritesLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	s := Log{Logger: log.New(&buf, "", 0)}
	if err := s.Publish(context.Background(), sampleEvents()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	line := buf.String()
	if !strings.Contains(line, "seq=3") || !strings.Contains(line, "type=post.added") {
		t.Fatalf("unexpected log line %q", line)
	}
}

func TestMultiAttemptsEverySink(t *testing.T) {
	boom := errors.New("boom")
	first := &recordingSink{name: "first", err: boom}
	second := &recordingSink{name: "second"}
	results := map[string]error{}
	m := Multi{
		Sinks:    []Sink{first, second},
		OnResult: func(name string, err error) { results[name] = err },
	}

	err := m.Publish(context.Background(), sampleEvents())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(second.got) != 1 {
		t.Fatal("second sink must still receive events")
	}
	if results["first"] != boom || results["second"] != nil {
		t.Fatalf("results = %v", results)
	}
}

func TestMultiSkipsEmptyBatch(t *testing.T) {
	s := &recordingSink{name: "s"}
	if err := (Multi{Sinks: []Sink{s}}).Publish(context.Background(), nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(s.got) != 0 {
		t.Fatal("empty batch must not reach sinks")
	}
}

func TestRedisSinkAppendsToStream(t *testing.T) {
	ctx := context.Background()
	addr := os.Getenv("FORUM_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: redis not reachable: %v", err)
	}
	stream := "forum:test:events"
	t.Cleanup(func() {
		client.Del(ctx, stream)
		client.Close()
	})

	s := NewRedis(client, stream, 0)
	if err := s.Publish(ctx, sampleEvents()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	entries, err := client.XRange(ctx, stream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("stream length = %d, want 1", len(entries))
	}
	if entries[0].Values["seq"] != "3" || entries[0].Values["type"] != "post.added" {
		t.Fatalf("entry = %v", entries[0].Values)
	}
}
