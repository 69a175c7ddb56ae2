package badger

import (
	"fmt"
	"math/big"
	"time"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/agoraledger/forum/internal/services/forum/domain/constraint"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// Values are SCALE encoded. Strings travel as Vec<u8>, optional values as
// a one byte presence flag followed by the value.

type writer struct {
	enc scale.Encoder
	err error
}

func (w *writer) put(v any) {
	if w.err == nil {
		w.err = w.enc.Encode(v)
	}
}

func (w *writer) str(s string) { w.put([]byte(s)) }

func (w *writer) stamp(ts stamp.Timestamp) {
	w.put(ts.Block)
	w.put(ts.Time.UnixMilli())
}

func (w *writer) count(n int) {
	if w.err == nil {
		w.err = w.enc.EncodeUintCompact(*big.NewInt(int64(n)))
	}
}

type reader struct {
	dec scale.Decoder
	err error
}

func (r *reader) get(ptr any) {
	if r.err == nil {
		r.err = r.dec.Decode(ptr)
	}
}

func (r *reader) str() string {
	var raw []byte
	r.get(&raw)
	return string(raw)
}

func (r *reader) u32() uint32 {
	var v uint32
	r.get(&v)
	return v
}

func (r *reader) u64() uint64 {
	var v uint64
	r.get(&v)
	return v
}

func (r *reader) flag() bool {
	var v bool
	r.get(&v)
	return v
}

func (r *reader) stamp() stamp.Timestamp {
	block := r.u64()
	var ms int64
	r.get(&ms)
	return stamp.Timestamp{Block: block, Time: time.UnixMilli(ms).UTC()}
}

func (r *reader) count() int {
	if r.err != nil {
		return 0
	}
	n, err := r.dec.DecodeUintCompact()
	if err != nil {
		r.err = err
		return 0
	}
	if !n.IsInt64() || n.Int64() > 1<<20 {
		r.err = fmt.Errorf("vector length %s out of range", n)
		return 0
	}
	return int(n.Int64())
}

func putModeration(w *writer, m *forum.ModerationAction) {
	w.put(m != nil)
	if m == nil {
		return
	}
	w.stamp(m.ModeratedAt)
	w.str(string(m.ModeratorID))
	w.str(m.Rationale)
}

func getModeration(r *reader) *forum.ModerationAction {
	if !r.flag() {
		return nil
	}
	return &forum.ModerationAction{
		ModeratedAt: r.stamp(),
		ModeratorID: forum.AccountID(r.str()),
		Rationale:   r.str(),
	}
}

type categoryRecord struct{ forum.Category }

func (c categoryRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(uint64(c.ID))
	w.str(c.Title)
	w.str(c.Description)
	w.stamp(c.CreatedAt)
	w.put(c.Deleted)
	w.put(c.Archived)
	w.put(c.NumDirectSubcategories)
	w.put(c.NumDirectUnmoderatedThreads)
	w.put(c.NumDirectModeratedThreads)
	w.put(c.PositionInParent != nil)
	if pos := c.PositionInParent; pos != nil {
		w.put(uint64(pos.ParentID))
		w.put(pos.ChildNrInParentCategory)
	}
	w.str(string(c.ModeratorID))
	return w.err
}

func (c *categoryRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	c.ID = forum.CategoryID(r.u64())
	c.Title = r.str()
	c.Description = r.str()
	c.CreatedAt = r.stamp()
	c.Deleted = r.flag()
	c.Archived = r.flag()
	c.NumDirectSubcategories = r.u32()
	c.NumDirectUnmoderatedThreads = r.u32()
	c.NumDirectModeratedThreads = r.u32()
	c.PositionInParent = nil
	if r.flag() {
		c.PositionInParent = &forum.ChildPosition{
			ParentID:                forum.CategoryID(r.u64()),
			ChildNrInParentCategory: r.u32(),
		}
	}
	c.ModeratorID = forum.AccountID(r.str())
	return r.err
}

type threadRecord struct{ forum.Thread }

func (t threadRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(uint64(t.ID))
	w.str(t.Title)
	w.put(uint64(t.CategoryID))
	w.put(t.NrInCategory)
	putModeration(w, t.Moderation)
	w.put(t.NumUnmoderatedPosts)
	w.put(t.NumModeratedPosts)
	w.stamp(t.CreatedAt)
	w.str(string(t.AuthorID))
	return w.err
}

func (t *threadRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	t.ID = forum.ThreadID(r.u64())
	t.Title = r.str()
	t.CategoryID = forum.CategoryID(r.u64())
	t.NrInCategory = r.u32()
	t.Moderation = getModeration(r)
	t.NumUnmoderatedPosts = r.u32()
	t.NumModeratedPosts = r.u32()
	t.CreatedAt = r.stamp()
	t.AuthorID = forum.AccountID(r.str())
	return r.err
}

type postRecord struct{ forum.Post }

func (p postRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(uint64(p.ID))
	w.put(uint64(p.ThreadID))
	w.put(p.NrInThread)
	w.str(p.CurrentText)
	putModeration(w, p.Moderation)
	w.count(len(p.TextChangeHistory))
	for _, change := range p.TextChangeHistory {
		w.stamp(change.ExpiredAt)
		w.str(change.Text)
	}
	w.stamp(p.CreatedAt)
	w.str(string(p.AuthorID))
	return w.err
}

func (p *postRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	p.ID = forum.PostID(r.u64())
	p.ThreadID = forum.ThreadID(r.u64())
	p.NrInThread = r.u32()
	p.CurrentText = r.str()
	p.Moderation = getModeration(r)
	p.TextChangeHistory = nil
	if n := r.count(); n > 0 {
		p.TextChangeHistory = make([]forum.PostTextChange, 0, n)
		for range n {
			p.TextChangeHistory = append(p.TextChangeHistory, forum.PostTextChange{
				ExpiredAt: r.stamp(),
				Text:      r.str(),
			})
		}
	}
	p.CreatedAt = r.stamp()
	p.AuthorID = forum.AccountID(r.str())
	return r.err
}

type settingsRecord struct{ forum.Settings }

func (s settingsRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(s.MaxCategoryDepth)
	for _, l := range lengths(&s.Constraints) {
		w.put(l.Min)
		w.put(l.MaxMinDiff)
	}
	return w.err
}

func (s *settingsRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	s.MaxCategoryDepth = r.u32()
	for _, l := range lengths(&s.Constraints) {
		r.get(&l.Min)
		r.get(&l.MaxMinDiff)
	}
	return r.err
}

// lengths lists the constraint fields in their encoded order.
func lengths(set *constraint.Set) []*constraint.Length {
	return []*constraint.Length{
		&set.CategoryTitle,
		&set.CategoryDescription,
		&set.ThreadTitle,
		&set.PostText,
		&set.ThreadModerationRationale,
		&set.PostModerationRationale,
	}
}

type eventRecord struct{ event.Event }

func (ev eventRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(ev.Seq)
	w.str(string(ev.Type))
	w.str(ev.EntityType)
	w.str(ev.EntityID)
	w.str(ev.ActorID)
	w.str(ev.RequestID)
	w.put(ev.Block)
	w.put(ev.Timestamp.UnixMilli())
	w.put(ev.PayloadJSON)
	w.str(ev.Hash)
	w.str(ev.PrevHash)
	w.str(ev.ChainHash)
	return w.err
}

func (ev *eventRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	ev.Seq = r.u64()
	ev.Type = event.Type(r.str())
	ev.EntityType = r.str()
	ev.EntityID = r.str()
	ev.ActorID = r.str()
	ev.RequestID = r.str()
	ev.Block = r.u64()
	var ms int64
	r.get(&ms)
	ev.Timestamp = time.UnixMilli(ms).UTC()
	r.get(&ev.PayloadJSON)
	ev.Hash = r.str()
	ev.PrevHash = r.str()
	ev.ChainHash = r.str()
	return r.err
}

type headRecord struct{ storage.Head }

func (h headRecord) Encode(e scale.Encoder) error {
	w := &writer{enc: e}
	w.put(h.Seq)
	w.str(h.ChainHash)
	return w.err
}

func (h *headRecord) Decode(d scale.Decoder) error {
	r := &reader{dec: d}
	h.Seq = r.u64()
	h.ChainHash = r.str()
	return r.err
}

type accountRecord struct{ forum.AccountID }

func (a accountRecord) Encode(e scale.Encoder) error {
	return e.Encode([]byte(a.AccountID))
}

func (a *accountRecord) Decode(d scale.Decoder) error {
	var raw []byte
	if err := d.Decode(&raw); err != nil {
		return err
	}
	a.AccountID = forum.AccountID(raw)
	return nil
}

func encode(v any) ([]byte, error) {
	bz, err := codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("scale encode %T: %w", v, err)
	}
	return bz, nil
}

func decode(bz []byte, target any) error {
	if err := codec.Decode(bz, target); err != nil {
		return fmt.Errorf("scale decode %T: %w", target, err)
	}
	return nil
}
