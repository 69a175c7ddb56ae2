package replay

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/engine"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
	"github.com/agoraledger/forum/internal/services/forum/membership"
	"github.com/agoraledger/forum/internal/services/forum/storage"
	"github.com/agoraledger/forum/internal/services/forum/storage/memory"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// buildSource runs a short forum history and returns its ledger.
func buildSource(t *testing.T) *memory.Ledger {
	t.Helper()
	ctx := context.Background()
	commands, err := forum.NewCommandRegistry()
	if err != nil {
		t.Fatalf("command registry: %v", err)
	}
	events, err := forum.NewEventRegistry()
	if err != nil {
		t.Fatalf("event registry: %v", err)
	}
	ledger := memory.New()
	if err := ledger.Update(ctx, func(tx storage.Tx) error {
		return tx.SetForumSudo("root", true)
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h := &engine.Handler{
		Commands: commands,
		Events:   events,
		Ledger:   ledger,
		Members:  membership.NewStatic("alice"),
		Clock:    stamp.Fixed(stamp.Timestamp{Block: 3, Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}),
	}
	parent := forum.CategoryID(1)
	newSudo := forum.AccountID("root2")
	steps := []command.Command{
		{Type: command.TypeCreateCategory, ActorID: "root", PayloadJSON: mustJSON(t, forum.CreateCategoryPayload{Title: "Announcements", Description: "Official news only"})},
		{Type: command.TypeCreateCategory, ActorID: "root", PayloadJSON: mustJSON(t, forum.CreateCategoryPayload{ParentID: &parent, Title: "Release notes", Description: "One thread per release"})},
		{Type: command.TypeCreateThread, ActorID: "alice", PayloadJSON: mustJSON(t, forum.CreateThreadPayload{CategoryID: 2, Title: "v1.0", Text: "shipped"})},
		{Type: command.TypeAddPost, ActorID: "alice", PayloadJSON: mustJSON(t, forum.AddPostPayload{ThreadID: 1, Text: "details"})},
		{Type: command.TypeEditPostText, ActorID: "alice", PayloadJSON: mustJSON(t, forum.EditPostTextPayload{PostID: 2, Text: "more details"})},
		{Type: command.TypeSetForumSudo, ActorID: "root", PayloadJSON: mustJSON(t, forum.SetForumSudoPayload{NewSudo: &newSudo})},
	}
	for _, cmd := range steps {
		if _, err := h.Execute(ctx, cmd); err != nil {
			t.Fatalf("execute %s: %v", cmd.Type, err)
		}
	}
	return ledger
}

type snapshot struct {
	Category forum.Category
	Thread   forum.Thread
	Post     forum.Post
	Sudo     forum.AccountID
	Next     [3]uint64
}

func takeSnapshot(t *testing.T, ledger storage.Ledger) snapshot {
	t.Helper()
	var s snapshot
	if err := ledger.View(context.Background(), func(r forum.Reader) error {
		var err error
		if s.Category, _, err = r.Category(2); err != nil {
			return err
		}
		if s.Thread, _, err = r.Thread(1); err != nil {
			return err
		}
		if s.Post, _, err = r.Post(2); err != nil {
			return err
		}
		if s.Sudo, _, err = r.ForumSudo(); err != nil {
			return err
		}
		c, _ := r.NextCategoryID()
		th, _ := r.NextThreadID()
		p, _ := r.NextPostID()
		s.Next = [3]uint64{uint64(c), uint64(th), uint64(p)}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	return s
}

func TestReplayReproducesState(t *testing.T) {
	ctx := context.Background()
	source := buildSource(t)
	target := memory.New()

	result, err := Replay(ctx, source, target, Options{PageSize: 2})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if result.Applied != 6 || result.LastSeq != 6 {
		t.Fatalf("result = %+v", result)
	}

	want := takeSnapshot(t, source)
	got := takeSnapshot(t, target)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("replayed state differs:\n got %+v\nwant %+v", got, want)
	}
	if got.Sudo != "root2" || len(got.Post.TextChangeHistory) != 1 {
		t.Fatalf("unexpected replayed records %+v", got)
	}

	sourceHead, _ := source.Head(ctx)
	targetHead, _ := target.Head(ctx)
	if sourceHead != targetHead {
		t.Fatalf("heads differ: %+v vs %+v", targetHead, sourceHead)
	}
}

func TestReplayResumesFromTargetHead(t *testing.T) {
	ctx := context.Background()
	source := buildSource(t)
	target := memory.New()

	first, err := Replay(ctx, source, target, Options{UntilSeq: 3})
	if err != nil {
		t.Fatalf("first replay: %v", err)
	}
	if first.LastSeq != 3 || first.Applied != 3 {
		t.Fatalf("first = %+v", first)
	}
	second, err := Replay(ctx, source, target, Options{})
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second.LastSeq != 6 || second.Applied != 3 {
		t.Fatalf("second = %+v", second)
	}
}

func TestReplayRejectsDivergedTarget(t *testing.T) {
	ctx := context.Background()
	source := buildSource(t)
	target := memory.New()
	if err := target.Update(ctx, func(tx storage.Tx) error {
		_, err := tx.AppendEvent(event.Event{
			Type:        event.TypeForumSudoSet,
			EntityType:  event.EntityForum,
			EntityID:    event.EntityForum,
			ActorID:     "someone",
			PayloadJSON: []byte(`{}`),
		})
		return err
	}); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	if _, err := Replay(ctx, source, target, Options{}); !errors.Is(err, ErrDiverged) {
		t.Fatalf("expected divergence, got %v", err)
	}
}

type tamperedStore struct {
	storage.Ledger
	seq uint64
}

func (s tamperedStore) ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error) {
	page, err := s.Ledger.ListEvents(ctx, req)
	for i := range page.Events {
		if page.Events[i].Seq == s.seq {
			page.Events[i].ActorID = "mallory"
		}
	}
	return page, err
}

func TestVerifyDetectsTampering(t *testing.T) {
	ctx := context.Background()
	source := buildSource(t)

	result, err := Verify(ctx, source, Options{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.LastSeq != 6 {
		t.Fatalf("verified up to %d", result.LastSeq)
	}

	_, err = Verify(ctx, tamperedStore{Ledger: source, seq: 4}, Options{})
	if !errors.Is(err, event.ErrChainBroken) {
		t.Fatalf("expected broken chain, got %v", err)
	}
}

func TestReplayRequiresStores(t *testing.T) {
	if _, err := Replay(context.Background(), nil, memory.New(), Options{}); !errors.Is(err, ErrEventStoreRequired) {
		t.Fatalf("expected missing store, got %v", err)
	}
	if _, err := Replay(context.Background(), memory.New(), nil, Options{}); !errors.Is(err, ErrTargetRequired) {
		t.Fatalf("expected missing target, got %v", err)
	}
}
