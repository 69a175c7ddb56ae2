package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/storage"
)

// tx adapts a Badger transaction to storage.Tx. Badger transactions read
// their own pending writes, so no overlay is needed.
type tx struct {
	txn *badger.Txn
}

// load decodes the value at key into target. It reports false when the key
// is absent.
func (t *tx) load(key []byte, target any) (bool, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := item.Value(func(val []byte) error {
		return decode(val, target)
	}); err != nil {
		return false, err
	}
	return true, nil
}

func (t *tx) store(key []byte, v any) error {
	bz, err := encode(v)
	if err != nil {
		return err
	}
	return t.txn.Set(key, bz)
}

func (t *tx) Category(id forum.CategoryID) (forum.Category, bool, error) {
	var rec categoryRecord
	ok, err := t.load(mapKey(itemCategoryByID, uint64(id)), &rec)
	if err != nil {
		return forum.Category{}, false, fmt.Errorf("get category %d: %w", id, err)
	}
	return rec.Category, ok, nil
}

func (t *tx) PutCategory(c forum.Category) error {
	if err := t.store(mapKey(itemCategoryByID, uint64(c.ID)), categoryRecord{c}); err != nil {
		return fmt.Errorf("put category %d: %w", c.ID, err)
	}
	return nil
}

func (t *tx) Thread(id forum.ThreadID) (forum.Thread, bool, error) {
	var rec threadRecord
	ok, err := t.load(mapKey(itemThreadByID, uint64(id)), &rec)
	if err != nil {
		return forum.Thread{}, false, fmt.Errorf("get thread %d: %w", id, err)
	}
	return rec.Thread, ok, nil
}

func (t *tx) PutThread(th forum.Thread) error {
	if err := t.store(mapKey(itemThreadByID, uint64(th.ID)), threadRecord{th}); err != nil {
		return fmt.Errorf("put thread %d: %w", th.ID, err)
	}
	return nil
}

func (t *tx) Post(id forum.PostID) (forum.Post, bool, error) {
	var rec postRecord
	ok, err := t.load(mapKey(itemPostByID, uint64(id)), &rec)
	if err != nil {
		return forum.Post{}, false, fmt.Errorf("get post %d: %w", id, err)
	}
	return rec.Post, ok, nil
}

func (t *tx) PutPost(p forum.Post) error {
	if err := t.store(mapKey(itemPostByID, uint64(p.ID)), postRecord{p}); err != nil {
		return fmt.Errorf("put post %d: %w", p.ID, err)
	}
	return nil
}

// cursor reads a next-id value. Absent cursors start at 1.
func (t *tx) cursor(item string) (uint64, error) {
	var n uint64
	ok, err := t.load(valueKey(item), &n)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", item, err)
	}
	if !ok {
		return 1, nil
	}
	return n, nil
}

func (t *tx) setCursor(item string, n uint64) error {
	if err := t.store(valueKey(item), n); err != nil {
		return fmt.Errorf("set %s: %w", item, err)
	}
	return nil
}

func (t *tx) NextCategoryID() (forum.CategoryID, error) {
	n, err := t.cursor(itemNextCategoryID)
	return forum.CategoryID(n), err
}

func (t *tx) NextThreadID() (forum.ThreadID, error) {
	n, err := t.cursor(itemNextThreadID)
	return forum.ThreadID(n), err
}

func (t *tx) NextPostID() (forum.PostID, error) {
	n, err := t.cursor(itemNextPostID)
	return forum.PostID(n), err
}

func (t *tx) SetNextCategoryID(id forum.CategoryID) error {
	return t.setCursor(itemNextCategoryID, uint64(id))
}

func (t *tx) SetNextThreadID(id forum.ThreadID) error {
	return t.setCursor(itemNextThreadID, uint64(id))
}

func (t *tx) SetNextPostID(id forum.PostID) error {
	return t.setCursor(itemNextPostID, uint64(id))
}

func (t *tx) ForumSudo() (forum.AccountID, bool, error) {
	var rec accountRecord
	ok, err := t.load(valueKey(itemForumSudo), &rec)
	if err != nil {
		return "", false, fmt.Errorf("get forum sudo: %w", err)
	}
	return rec.AccountID, ok, nil
}

func (t *tx) SetForumSudo(account forum.AccountID, ok bool) error {
	key := valueKey(itemForumSudo)
	if !ok {
		if err := t.txn.Delete(key); err != nil {
			return fmt.Errorf("clear forum sudo: %w", err)
		}
		return nil
	}
	if err := t.store(key, accountRecord{account}); err != nil {
		return fmt.Errorf("set forum sudo: %w", err)
	}
	return nil
}

func (t *tx) Settings() (forum.Settings, error) {
	var rec settingsRecord
	ok, err := t.load(valueKey(itemSettings), &rec)
	if err != nil {
		return forum.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if !ok {
		return forum.DefaultSettings(), nil
	}
	return rec.Settings, nil
}

func (t *tx) SetSettings(s forum.Settings) error {
	if err := t.store(valueKey(itemSettings), settingsRecord{s}); err != nil {
		return fmt.Errorf("set settings: %w", err)
	}
	return nil
}

func (t *tx) Head() (storage.Head, error) {
	var rec headRecord
	if _, err := t.load(valueKey(itemJournalHead), &rec); err != nil {
		return storage.Head{}, fmt.Errorf("get journal head: %w", err)
	}
	return rec.Head, nil
}

func (t *tx) AppendEvent(evt event.Event) (event.Event, error) {
	head, err := t.Head()
	if err != nil {
		return event.Event{}, err
	}
	sealed, err := storage.SealNext(head, evt)
	if err != nil {
		return event.Event{}, err
	}
	if err := t.store(journalKey(sealed.Seq), eventRecord{sealed}); err != nil {
		return event.Event{}, fmt.Errorf("append event %d: %w", sealed.Seq, err)
	}
	next := storage.Head{Seq: sealed.Seq, ChainHash: sealed.ChainHash}
	if err := t.store(valueKey(itemJournalHead), headRecord{next}); err != nil {
		return event.Event{}, fmt.Errorf("advance journal head: %w", err)
	}
	return sealed, nil
}
