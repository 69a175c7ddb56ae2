// Package memory provides an in-process ledger backend. Writes made by a
// transaction are buffered in an overlay and merged on commit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agoraledger/forum/internal/services/forum/core/filter"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

type sudoCell struct {
	account forum.AccountID
	set     bool
}

type snapshot struct {
	categories map[forum.CategoryID]forum.Category
	threads    map[forum.ThreadID]forum.Thread
	posts      map[forum.PostID]forum.Post
	nextCat    forum.CategoryID
	nextThread forum.ThreadID
	nextPost   forum.PostID
	sudo       sudoCell
	settings   forum.Settings
	events     []event.Event
}

// Ledger is a storage.Ledger held entirely in memory.
type Ledger struct {
	mu     sync.RWMutex
	closed bool
	state  snapshot
}

var _ storage.Ledger = (*Ledger)(nil)

// New returns an empty ledger with fresh cursors and default settings.
func New() *Ledger {
	return &Ledger{state: snapshot{
		categories: make(map[forum.CategoryID]forum.Category),
		threads:    make(map[forum.ThreadID]forum.Thread),
		posts:      make(map[forum.PostID]forum.Post),
		nextCat:    1,
		nextThread: 1,
		nextPost:   1,
		settings:   forum.DefaultSettings(),
	}}
}

// View implements storage.Ledger.
func (l *Ledger) View(ctx context.Context, fn func(forum.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return storage.ErrClosed
	}
	return fn(&tx{base: &l.state, readOnly: true})
}

// Update implements storage.Ledger.
func (l *Ledger) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return storage.ErrClosed
	}
	t := newTx(&l.state)
	if err := fn(t); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// ListEvents implements storage.Ledger.
func (l *Ledger) ListEvents(ctx context.Context, req storage.ListEventsRequest) (storage.EventPage, error) {
	if err := ctx.Err(); err != nil {
		return storage.EventPage{}, err
	}
	f, err := filter.Parse(req.Filter)
	if err != nil {
		return storage.EventPage{}, err
	}
	limit := storage.NormalizeLimit(req.Limit)

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return storage.EventPage{}, storage.ErrClosed
	}

	var page storage.EventPage
	events := l.state.events
	if req.PastEnd() || req.AfterSeq >= uint64(len(events)) {
		return page, nil
	}
	for _, evt := range events[req.AfterSeq:] {
		if !f.Match(evt) {
			continue
		}
		if len(page.Events) == limit {
			page.HasMore = true
			break
		}
		page.Events = append(page.Events, cloneEvent(evt))
	}
	return page, nil
}

// Head implements storage.Ledger.
func (l *Ledger) Head(ctx context.Context) (storage.Head, error) {
	if err := ctx.Err(); err != nil {
		return storage.Head{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return storage.Head{}, storage.ErrClosed
	}
	return headOf(l.state.events), nil
}

// Close implements storage.Ledger.
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func headOf(events []event.Event) storage.Head {
	if len(events) == 0 {
		return storage.Head{}
	}
	last := events[len(events)-1]
	return storage.Head{Seq: last.Seq, ChainHash: last.ChainHash}
}

// tx overlays pending writes on the committed snapshot.
type tx struct {
	base     *snapshot
	readOnly bool

	categories map[forum.CategoryID]forum.Category
	threads    map[forum.ThreadID]forum.Thread
	posts      map[forum.PostID]forum.Post
	nextCat    *forum.CategoryID
	nextThread *forum.ThreadID
	nextPost   *forum.PostID
	sudo       *sudoCell
	settings   *forum.Settings
	events     []event.Event
}

func newTx(base *snapshot) *tx {
	return &tx{
		base:       base,
		categories: make(map[forum.CategoryID]forum.Category),
		threads:    make(map[forum.ThreadID]forum.Thread),
		posts:      make(map[forum.PostID]forum.Post),
	}
}

func (t *tx) commit() {
	for id, c := range t.categories {
		t.base.categories[id] = c
	}
	for id, th := range t.threads {
		t.base.threads[id] = th
	}
	for id, p := range t.posts {
		t.base.posts[id] = p
	}
	if t.nextCat != nil {
		t.base.nextCat = *t.nextCat
	}
	if t.nextThread != nil {
		t.base.nextThread = *t.nextThread
	}
	if t.nextPost != nil {
		t.base.nextPost = *t.nextPost
	}
	if t.sudo != nil {
		t.base.sudo = *t.sudo
	}
	if t.settings != nil {
		t.base.settings = *t.settings
	}
	t.base.events = append(t.base.events, t.events...)
}

func (t *tx) Category(id forum.CategoryID) (forum.Category, bool, error) {
	if c, ok := t.categories[id]; ok {
		return c, true, nil
	}
	c, ok := t.base.categories[id]
	return c, ok, nil
}

func (t *tx) Thread(id forum.ThreadID) (forum.Thread, bool, error) {
	if th, ok := t.threads[id]; ok {
		return th, true, nil
	}
	th, ok := t.base.threads[id]
	return th, ok, nil
}

func (t *tx) Post(id forum.PostID) (forum.Post, bool, error) {
	p, ok := t.posts[id]
	if !ok {
		p, ok = t.base.posts[id]
	}
	if !ok {
		return forum.Post{}, false, nil
	}
	p.TextChangeHistory = append([]forum.PostTextChange(nil), p.TextChangeHistory...)
	return p, true, nil
}

func (t *tx) NextCategoryID() (forum.CategoryID, error) {
	if t.nextCat != nil {
		return *t.nextCat, nil
	}
	return t.base.nextCat, nil
}

func (t *tx) NextThreadID() (forum.ThreadID, error) {
	if t.nextThread != nil {
		return *t.nextThread, nil
	}
	return t.base.nextThread, nil
}

func (t *tx) NextPostID() (forum.PostID, error) {
	if t.nextPost != nil {
		return *t.nextPost, nil
	}
	return t.base.nextPost, nil
}

func (t *tx) ForumSudo() (forum.AccountID, bool, error) {
	cell := t.base.sudo
	if t.sudo != nil {
		cell = *t.sudo
	}
	return cell.account, cell.set, nil
}

func (t *tx) Settings() (forum.Settings, error) {
	if t.settings != nil {
		return *t.settings, nil
	}
	return t.base.settings, nil
}

func (t *tx) writable() error {
	if t.readOnly {
		return fmt.Errorf("memory ledger: write in read-only view")
	}
	return nil
}

func (t *tx) PutCategory(c forum.Category) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.categories[c.ID] = c
	return nil
}

func (t *tx) PutThread(th forum.Thread) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.threads[th.ID] = th
	return nil
}

func (t *tx) PutPost(p forum.Post) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.posts[p.ID] = p
	return nil
}

func (t *tx) SetNextCategoryID(id forum.CategoryID) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.nextCat = &id
	return nil
}

func (t *tx) SetNextThreadID(id forum.ThreadID) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.nextThread = &id
	return nil
}

func (t *tx) SetNextPostID(id forum.PostID) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.nextPost = &id
	return nil
}

func (t *tx) SetForumSudo(account forum.AccountID, ok bool) error {
	if err := t.writable(); err != nil {
		return err
	}
	if !ok {
		account = ""
	}
	t.sudo = &sudoCell{account: account, set: ok}
	return nil
}

func (t *tx) SetSettings(s forum.Settings) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.settings = &s
	return nil
}

func (t *tx) Head() (storage.Head, error) {
	if len(t.events) > 0 {
		return headOf(t.events), nil
	}
	return headOf(t.base.events), nil
}

func (t *tx) AppendEvent(evt event.Event) (event.Event, error) {
	if err := t.writable(); err != nil {
		return event.Event{}, err
	}
	head, err := t.Head()
	if err != nil {
		return event.Event{}, err
	}
	sealed, err := storage.SealNext(head, evt)
	if err != nil {
		return event.Event{}, err
	}
	t.events = append(t.events, sealed)
	return cloneEvent(sealed), nil
}

func cloneEvent(evt event.Event) event.Event {
	evt.PayloadJSON = append([]byte(nil), evt.PayloadJSON...)
	return evt
}
