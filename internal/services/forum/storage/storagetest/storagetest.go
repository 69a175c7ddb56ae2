// Package storagetest is a conformance suite every ledger backend runs.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/agoraledger/forum/internal/services/forum/domain/constraint"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// Factory opens a fresh, empty ledger. The suite closes it.
type Factory func(t *testing.T) storage.Ledger

// Run executes the conformance suite against ledgers produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(*testing.T, storage.Ledger)
	}{
		{"Defaults", testDefaults},
		{"RecordRoundTrip", testRecordRoundTrip},
		{"RollbackDiscardsWrites", testRollbackDiscardsWrites},
		{"SudoAndSettings", testSudoAndSettings},
		{"JournalChain", testJournalChain},
		{"ListEventsPagingAndFilter", testListEventsPagingAndFilter},
		{"ReadYourWritesInTx", testReadYourWritesInTx},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := open(t)
			t.Cleanup(func() { _ = ledger.Close() })
			tt.fn(t, ledger)
		})
	}
}

var at = stamp.Timestamp{Block: 42, Time: time.Date(2026, 5, 6, 7, 8, 9, 123_000_000, time.UTC)}

// SampleCategory returns a non-root category with every field populated.
func SampleCategory() forum.Category {
	return forum.Category{
		ID:                          2,
		Title:                       "Sample category",
		Description:                 "Sample description",
		CreatedAt:                   at,
		Deleted:                     true,
		Archived:                    true,
		NumDirectSubcategories:      3,
		NumDirectUnmoderatedThreads: 4,
		NumDirectModeratedThreads:   5,
		PositionInParent:            &forum.ChildPosition{ParentID: 1, ChildNrInParentCategory: 7},
		ModeratorID:                 "sudo",
	}
}

// SampleThread returns a moderated thread.
func SampleThread() forum.Thread {
	return forum.Thread{
		ID:           9,
		Title:        "Sample thread",
		CategoryID:   2,
		NrInCategory: 3,
		Moderation: &forum.ModerationAction{
			ModeratedAt: stamp.Timestamp{Block: 50, Time: at.Time.Add(time.Minute)},
			ModeratorID: "sudo",
			Rationale:   "off topic",
		},
		NumUnmoderatedPosts: 6,
		NumModeratedPosts:   1,
		CreatedAt:           at,
		AuthorID:            "alice",
	}
}

// SamplePost returns a post with edit history.
func SamplePost() forum.Post {
	return forum.Post{
		ID:          11,
		ThreadID:    9,
		NrInThread:  2,
		CurrentText: "third",
		TextChangeHistory: []forum.PostTextChange{
			{ExpiredAt: stamp.Timestamp{Block: 43, Time: at.Time.Add(time.Second)}, Text: "first"},
			{ExpiredAt: stamp.Timestamp{Block: 44, Time: at.Time.Add(2 * time.Second)}, Text: "second"},
		},
		CreatedAt: at,
		AuthorID:  "bob",
	}
}

func testDefaults(t *testing.T, ledger storage.Ledger) {
	err := ledger.View(context.Background(), func(r forum.Reader) error {
		if id, err := r.NextCategoryID(); err != nil || id != 1 {
			return fmt.Errorf("next category id = %d, %v", id, err)
		}
		if id, err := r.NextThreadID(); err != nil || id != 1 {
			return fmt.Errorf("next thread id = %d, %v", id, err)
		}
		if id, err := r.NextPostID(); err != nil || id != 1 {
			return fmt.Errorf("next post id = %d, %v", id, err)
		}
		if _, ok, err := r.ForumSudo(); err != nil || ok {
			return fmt.Errorf("sudo set on empty ledger: %v", err)
		}
		settings, err := r.Settings()
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(settings, forum.DefaultSettings()) {
			return fmt.Errorf("settings = %+v, want defaults", settings)
		}
		if _, ok, err := r.Category(1); err != nil || ok {
			return fmt.Errorf("unexpected category: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	head, err := ledger.Head(context.Background())
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head != (storage.Head{}) {
		t.Fatalf("head = %+v, want empty", head)
	}
}

func testRecordRoundTrip(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	root := forum.Category{ID: 1, Title: "Root", CreatedAt: at, ModeratorID: "sudo", NumDirectSubcategories: 1}
	err := ledger.Update(ctx, func(tx storage.Tx) error {
		for _, c := range []forum.Category{root, SampleCategory()} {
			if err := tx.PutCategory(c); err != nil {
				return err
			}
		}
		if err := tx.PutThread(SampleThread()); err != nil {
			return err
		}
		if err := tx.PutPost(SamplePost()); err != nil {
			return err
		}
		post := SamplePost()
		post.ID = 12
		post.TextChangeHistory = nil
		return tx.PutPost(post)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = ledger.View(ctx, func(r forum.Reader) error {
		gotRoot, ok, err := r.Category(1)
		if err != nil || !ok {
			return fmt.Errorf("root category: ok=%v err=%v", ok, err)
		}
		if err := expectEqual("root category", gotRoot, root); err != nil {
			return err
		}
		category, _, err := r.Category(2)
		if err != nil {
			return err
		}
		if err := expectEqual("category", category, SampleCategory()); err != nil {
			return err
		}
		thread, ok, err := r.Thread(9)
		if err != nil || !ok {
			return fmt.Errorf("thread: ok=%v err=%v", ok, err)
		}
		if err := expectEqual("thread", thread, SampleThread()); err != nil {
			return err
		}
		post, ok, err := r.Post(11)
		if err != nil || !ok {
			return fmt.Errorf("post: ok=%v err=%v", ok, err)
		}
		if err := expectEqual("post", post, SamplePost()); err != nil {
			return err
		}
		bare, ok, err := r.Post(12)
		if err != nil || !ok {
			return fmt.Errorf("bare post: ok=%v err=%v", ok, err)
		}
		if len(bare.TextChangeHistory) != 0 || bare.Moderation != nil {
			return fmt.Errorf("bare post = %+v", bare)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func testRollbackDiscardsWrites(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	boom := errors.New("boom")
	err := ledger.Update(ctx, func(tx storage.Tx) error {
		if err := tx.PutCategory(SampleCategory()); err != nil {
			return err
		}
		if err := tx.SetNextCategoryID(3); err != nil {
			return err
		}
		if err := tx.SetForumSudo("mallory", true); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(sampleEvent("1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("update error = %v, want boom", err)
	}

	err = ledger.View(ctx, func(r forum.Reader) error {
		if _, ok, err := r.Category(2); err != nil || ok {
			return fmt.Errorf("category survived rollback: %v", err)
		}
		if id, err := r.NextCategoryID(); err != nil || id != 1 {
			return fmt.Errorf("cursor survived rollback: %d %v", id, err)
		}
		if _, ok, err := r.ForumSudo(); err != nil || ok {
			return fmt.Errorf("sudo survived rollback: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	head, err := ledger.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head.Seq != 0 {
		t.Fatalf("event survived rollback: head %+v", head)
	}
}

func testSudoAndSettings(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	settings := forum.Settings{
		MaxCategoryDepth: 5,
		Constraints:      constraint.DefaultSet(),
	}
	settings.Constraints.PostText = constraint.Length{Min: 2, MaxMinDiff: 20}

	err := ledger.Update(ctx, func(tx storage.Tx) error {
		if err := tx.SetForumSudo("root", true); err != nil {
			return err
		}
		if err := tx.SetSettings(settings); err != nil {
			return err
		}
		if err := tx.SetNextCategoryID(10); err != nil {
			return err
		}
		if err := tx.SetNextThreadID(20); err != nil {
			return err
		}
		return tx.SetNextPostID(30)
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	err = ledger.View(ctx, func(r forum.Reader) error {
		sudo, ok, err := r.ForumSudo()
		if err != nil || !ok || sudo != "root" {
			return fmt.Errorf("sudo = %q ok=%v err=%v", sudo, ok, err)
		}
		got, err := r.Settings()
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(got, settings) {
			return fmt.Errorf("settings = %+v, want %+v", got, settings)
		}
		c, _ := r.NextCategoryID()
		th, _ := r.NextThreadID()
		p, _ := r.NextPostID()
		if c != 10 || th != 20 || p != 30 {
			return fmt.Errorf("cursors = %d/%d/%d", c, th, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	if err := ledger.Update(ctx, func(tx storage.Tx) error { return tx.SetForumSudo("", false) }); err != nil {
		t.Fatalf("clear sudo: %v", err)
	}
	err = ledger.View(ctx, func(r forum.Reader) error {
		if _, ok, err := r.ForumSudo(); err != nil || ok {
			return fmt.Errorf("sudo still set: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func sampleEvent(entityID string) event.Event {
	return event.Event{
		Type:        event.TypePostAdded,
		EntityType:  event.EntityPost,
		EntityID:    entityID,
		ActorID:     "alice",
		RequestID:   "req-" + entityID,
		Block:       at.Block,
		Timestamp:   at.Time,
		PayloadJSON: []byte(fmt.Sprintf(`{"post_id":%s}`, entityID)),
	}
}

func appendEvents(t *testing.T, ledger storage.Ledger, events ...event.Event) []event.Event {
	t.Helper()
	var stored []event.Event
	for _, evt := range events {
		err := ledger.Update(context.Background(), func(tx storage.Tx) error {
			sealed, err := tx.AppendEvent(evt)
			if err != nil {
				return err
			}
			stored = append(stored, sealed)
			return nil
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return stored
}

func testJournalChain(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	stored := appendEvents(t, ledger, sampleEvent("1"), sampleEvent("2"), sampleEvent("3"))
	for i, evt := range stored {
		if evt.Seq != uint64(i+1) {
			t.Fatalf("event %d seq = %d", i, evt.Seq)
		}
	}

	page, err := ledger.ListEvents(ctx, storage.ListEventsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Events) != 3 || page.HasMore {
		t.Fatalf("page = %d events, more=%v", len(page.Events), page.HasMore)
	}
	var prev storage.Head
	for _, evt := range page.Events {
		if err := event.Verify(evt, prev.Seq, prev.ChainHash); err != nil {
			t.Fatalf("verify seq %d: %v", evt.Seq, err)
		}
		prev = storage.Head{Seq: evt.Seq, ChainHash: evt.ChainHash}
	}
	if !page.Events[1].Timestamp.Equal(at.Time) || page.Events[1].RequestID != "req-2" || page.Events[1].Block != at.Block {
		t.Fatalf("event fields not preserved: %+v", page.Events[1])
	}

	head, err := ledger.Head(ctx)
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if head != prev {
		t.Fatalf("head = %+v, want %+v", head, prev)
	}
}

func testListEventsPagingAndFilter(t *testing.T, ledger storage.Ledger) {
	ctx := context.Background()
	var events []event.Event
	for i := 1; i <= 5; i++ {
		evt := sampleEvent(fmt.Sprint(i))
		if i%2 == 0 {
			evt.ActorID = "bob"
		}
		events = append(events, evt)
	}
	appendEvents(t, ledger, events...)

	page, err := ledger.ListEvents(ctx, storage.ListEventsRequest{AfterSeq: 1, Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Events) != 2 || !page.HasMore || page.Events[0].Seq != 2 || page.Events[1].Seq != 3 {
		t.Fatalf("unexpected page: %+v", page)
	}

	page, err = ledger.ListEvents(ctx, storage.ListEventsRequest{Filter: `actor_id = "bob"`})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(page.Events) != 2 || page.Events[0].Seq != 2 || page.Events[1].Seq != 4 {
		t.Fatalf("unexpected filtered page: %+v", page)
	}

	for _, after := range []uint64{5, storage.MaxEventSeq, 1 << 63, math.MaxUint64} {
		page, err = ledger.ListEvents(ctx, storage.ListEventsRequest{AfterSeq: after})
		if err != nil {
			t.Fatalf("list after %d: %v", after, err)
		}
		if len(page.Events) != 0 || page.HasMore {
			t.Fatalf("after %d: expected empty page, got %+v", after, page)
		}
	}

	if _, err := ledger.ListEvents(ctx, storage.ListEventsRequest{Filter: `nope = 1`}); err == nil {
		t.Fatal("expected filter error")
	}
}

func testReadYourWritesInTx(t *testing.T, ledger storage.Ledger) {
	err := ledger.Update(context.Background(), func(tx storage.Tx) error {
		if err := tx.PutCategory(SampleCategory()); err != nil {
			return err
		}
		c, ok, err := tx.Category(2)
		if err != nil || !ok || c.Title != "Sample category" {
			return fmt.Errorf("category not visible in tx: ok=%v err=%v", ok, err)
		}
		if _, err := tx.AppendEvent(sampleEvent("1")); err != nil {
			return err
		}
		second, err := tx.AppendEvent(sampleEvent("2"))
		if err != nil {
			return err
		}
		head, err := tx.Head()
		if err != nil {
			return err
		}
		if head.Seq != 2 || second.Seq != 2 || head.ChainHash != second.ChainHash {
			return fmt.Errorf("tx head = %+v", head)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
}

func expectEqual[T any](name string, got, want T) error {
	if !reflect.DeepEqual(normalize(got), normalize(want)) {
		return fmt.Errorf("%s mismatch:\n got  %+v\n want %+v", name, got, want)
	}
	return nil
}

// normalize removes representation differences that carry no meaning:
// nil versus empty history and time zone pointers.
func normalize(v any) any {
	switch r := v.(type) {
	case forum.Category:
		r.CreatedAt = normStamp(r.CreatedAt)
		return r
	case forum.Thread:
		r.CreatedAt = normStamp(r.CreatedAt)
		if r.Moderation != nil {
			m := *r.Moderation
			m.ModeratedAt = normStamp(m.ModeratedAt)
			r.Moderation = &m
		}
		return r
	case forum.Post:
		r.CreatedAt = normStamp(r.CreatedAt)
		if len(r.TextChangeHistory) == 0 {
			r.TextChangeHistory = nil
		}
		history := make([]forum.PostTextChange, 0, len(r.TextChangeHistory))
		for _, change := range r.TextChangeHistory {
			change.ExpiredAt = normStamp(change.ExpiredAt)
			history = append(history, change)
		}
		if len(history) > 0 {
			r.TextChangeHistory = history
		}
		if r.Moderation != nil {
			m := *r.Moderation
			m.ModeratedAt = normStamp(m.ModeratedAt)
			r.Moderation = &m
		}
		return r
	default:
		return v
	}
}

func normStamp(ts stamp.Timestamp) stamp.Timestamp {
	return stamp.FromMillis(ts.Block, ts.Millis())
}
