package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/agoraledger/forum/internal/services/forum/domain/forum"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
)

const (
	metaNextCategoryID = "next_category_id"
	metaNextThreadID   = "next_thread_id"
	metaNextPostID     = "next_post_id"
	metaForumSudo      = "forum_sudo"
	metaSettings       = "settings"
)

// Category methods

func (t *tx) Category(id forum.CategoryID) (forum.Category, bool, error) {
	row := t.q.QueryRowContext(t.ctx, `
SELECT id, title, description, created_block, created_at, deleted, archived,
       num_direct_subcategories, num_direct_unmoderated_threads, num_direct_moderated_threads,
       parent_id, child_nr_in_parent, moderator_id
FROM categories WHERE id = ?`, int64(id))

	var (
		c            forum.Category
		rawID        int64
		createdBlock int64
		createdAt    int64
		parentID     sql.NullInt64
		childNr      sql.NullInt64
		moderatorID  string
	)
	err := row.Scan(&rawID, &c.Title, &c.Description, &createdBlock, &createdAt, &c.Deleted, &c.Archived,
		&c.NumDirectSubcategories, &c.NumDirectUnmoderatedThreads, &c.NumDirectModeratedThreads,
		&parentID, &childNr, &moderatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return forum.Category{}, false, nil
	}
	if err != nil {
		return forum.Category{}, false, fmt.Errorf("get category %d: %w", id, err)
	}
	c.ID = forum.CategoryID(rawID)
	c.CreatedAt = stamp.FromMillis(uint64(createdBlock), createdAt)
	c.ModeratorID = forum.AccountID(moderatorID)
	if parentID.Valid {
		c.PositionInParent = &forum.ChildPosition{
			ParentID:                forum.CategoryID(parentID.Int64),
			ChildNrInParentCategory: uint32(childNr.Int64),
		}
	}
	return c, true, nil
}

func (t *tx) PutCategory(c forum.Category) error {
	var parentID, childNr sql.NullInt64
	if c.PositionInParent != nil {
		parentID = sql.NullInt64{Int64: int64(c.PositionInParent.ParentID), Valid: true}
		childNr = sql.NullInt64{Int64: int64(c.PositionInParent.ChildNrInParentCategory), Valid: true}
	}
	_, err := t.q.ExecContext(t.ctx, `
INSERT INTO categories (
    id, title, description, created_block, created_at, deleted, archived,
    num_direct_subcategories, num_direct_unmoderated_threads, num_direct_moderated_threads,
    parent_id, child_nr_in_parent, moderator_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    created_block = excluded.created_block,
    created_at = excluded.created_at,
    deleted = excluded.deleted,
    archived = excluded.archived,
    num_direct_subcategories = excluded.num_direct_subcategories,
    num_direct_unmoderated_threads = excluded.num_direct_unmoderated_threads,
    num_direct_moderated_threads = excluded.num_direct_moderated_threads,
    parent_id = excluded.parent_id,
    child_nr_in_parent = excluded.child_nr_in_parent,
    moderator_id = excluded.moderator_id`,
		int64(c.ID), c.Title, c.Description, int64(c.CreatedAt.Block), c.CreatedAt.Millis(),
		boolToInt(c.Deleted), boolToInt(c.Archived),
		int64(c.NumDirectSubcategories), int64(c.NumDirectUnmoderatedThreads), int64(c.NumDirectModeratedThreads),
		parentID, childNr, string(c.ModeratorID),
	)
	if err != nil {
		return fmt.Errorf("put category %d: %w", c.ID, err)
	}
	return nil
}

// Thread methods

func (t *tx) Thread(id forum.ThreadID) (forum.Thread, bool, error) {
	row := t.q.QueryRowContext(t.ctx, `
SELECT id, title, category_id, nr_in_category,
       moderated_block, moderated_at, moderator_id, moderation_rationale,
       num_unmoderated_posts, num_moderated_posts, created_block, created_at, author_id
FROM threads WHERE id = ?`, int64(id))

	var (
		th           forum.Thread
		rawID        int64
		categoryID   int64
		mod          moderationColumns
		createdBlock int64
		createdAt    int64
		authorID     string
	)
	err := row.Scan(&rawID, &th.Title, &categoryID, &th.NrInCategory,
		&mod.block, &mod.at, &mod.moderatorID, &mod.rationale,
		&th.NumUnmoderatedPosts, &th.NumModeratedPosts, &createdBlock, &createdAt, &authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return forum.Thread{}, false, nil
	}
	if err != nil {
		return forum.Thread{}, false, fmt.Errorf("get thread %d: %w", id, err)
	}
	th.ID = forum.ThreadID(rawID)
	th.CategoryID = forum.CategoryID(categoryID)
	th.Moderation = mod.action()
	th.CreatedAt = stamp.FromMillis(uint64(createdBlock), createdAt)
	th.AuthorID = forum.AccountID(authorID)
	return th, true, nil
}

func (t *tx) PutThread(th forum.Thread) error {
	mod := toModerationColumns(th.Moderation)
	_, err := t.q.ExecContext(t.ctx, `
INSERT INTO threads (
    id, title, category_id, nr_in_category,
    moderated_block, moderated_at, moderator_id, moderation_rationale,
    num_unmoderated_posts, num_moderated_posts, created_block, created_at, author_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    category_id = excluded.category_id,
    nr_in_category = excluded.nr_in_category,
    moderated_block = excluded.moderated_block,
    moderated_at = excluded.moderated_at,
    moderator_id = excluded.moderator_id,
    moderation_rationale = excluded.moderation_rationale,
    num_unmoderated_posts = excluded.num_unmoderated_posts,
    num_moderated_posts = excluded.num_moderated_posts,
    created_block = excluded.created_block,
    created_at = excluded.created_at,
    author_id = excluded.author_id`,
		int64(th.ID), th.Title, int64(th.CategoryID), int64(th.NrInCategory),
		mod.block, mod.at, mod.moderatorID, mod.rationale,
		int64(th.NumUnmoderatedPosts), int64(th.NumModeratedPosts),
		int64(th.CreatedAt.Block), th.CreatedAt.Millis(), string(th.AuthorID),
	)
	if err != nil {
		return fmt.Errorf("put thread %d: %w", th.ID, err)
	}
	return nil
}

// Post methods

func (t *tx) Post(id forum.PostID) (forum.Post, bool, error) {
	row := t.q.QueryRowContext(t.ctx, `
SELECT id, thread_id, nr_in_thread, current_text,
       moderated_block, moderated_at, moderator_id, moderation_rationale,
       created_block, created_at, author_id
FROM posts WHERE id = ?`, int64(id))

	var (
		p            forum.Post
		rawID        int64
		threadID     int64
		mod          moderationColumns
		createdBlock int64
		createdAt    int64
		authorID     string
	)
	err := row.Scan(&rawID, &threadID, &p.NrInThread, &p.CurrentText,
		&mod.block, &mod.at, &mod.moderatorID, &mod.rationale,
		&createdBlock, &createdAt, &authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return forum.Post{}, false, nil
	}
	if err != nil {
		return forum.Post{}, false, fmt.Errorf("get post %d: %w", id, err)
	}
	p.ID = forum.PostID(rawID)
	p.ThreadID = forum.ThreadID(threadID)
	p.Moderation = mod.action()
	p.CreatedAt = stamp.FromMillis(uint64(createdBlock), createdAt)
	p.AuthorID = forum.AccountID(authorID)

	history, err := t.postHistory(id)
	if err != nil {
		return forum.Post{}, false, err
	}
	p.TextChangeHistory = history
	return p, true, nil
}

func (t *tx) postHistory(id forum.PostID) ([]forum.PostTextChange, error) {
	rows, err := t.q.QueryContext(t.ctx, `
SELECT expired_block, expired_at, text FROM post_text_changes
WHERE post_id = ? ORDER BY change_nr`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list post %d history: %w", id, err)
	}
	defer rows.Close()

	var history []forum.PostTextChange
	for rows.Next() {
		var (
			block     int64
			expiredAt int64
			text      string
		)
		if err := rows.Scan(&block, &expiredAt, &text); err != nil {
			return nil, fmt.Errorf("scan post %d history: %w", id, err)
		}
		history = append(history, forum.PostTextChange{
			ExpiredAt: stamp.FromMillis(uint64(block), expiredAt),
			Text:      text,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post %d history: %w", id, err)
	}
	return history, nil
}

// PutPost writes the post row and any history entries not yet stored.
// History is append-only, so existing entries are never rewritten.
func (t *tx) PutPost(p forum.Post) error {
	mod := toModerationColumns(p.Moderation)
	_, err := t.q.ExecContext(t.ctx, `
INSERT INTO posts (
    id, thread_id, nr_in_thread, current_text,
    moderated_block, moderated_at, moderator_id, moderation_rationale,
    created_block, created_at, author_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    thread_id = excluded.thread_id,
    nr_in_thread = excluded.nr_in_thread,
    current_text = excluded.current_text,
    moderated_block = excluded.moderated_block,
    moderated_at = excluded.moderated_at,
    moderator_id = excluded.moderator_id,
    moderation_rationale = excluded.moderation_rationale,
    created_block = excluded.created_block,
    created_at = excluded.created_at,
    author_id = excluded.author_id`,
		int64(p.ID), int64(p.ThreadID), int64(p.NrInThread), p.CurrentText,
		mod.block, mod.at, mod.moderatorID, mod.rationale,
		int64(p.CreatedAt.Block), p.CreatedAt.Millis(), string(p.AuthorID),
	)
	if err != nil {
		return fmt.Errorf("put post %d: %w", p.ID, err)
	}

	var stored int
	if err := t.q.QueryRowContext(t.ctx,
		`SELECT COUNT(*) FROM post_text_changes WHERE post_id = ?`, int64(p.ID),
	).Scan(&stored); err != nil {
		return fmt.Errorf("count post %d history: %w", p.ID, err)
	}
	if stored > len(p.TextChangeHistory) {
		return fmt.Errorf("put post %d: history shrank from %d to %d", p.ID, stored, len(p.TextChangeHistory))
	}
	for i := stored; i < len(p.TextChangeHistory); i++ {
		change := p.TextChangeHistory[i]
		if _, err := t.q.ExecContext(t.ctx, `
INSERT INTO post_text_changes (post_id, change_nr, expired_block, expired_at, text)
VALUES (?, ?, ?, ?, ?)`,
			int64(p.ID), i+1, int64(change.ExpiredAt.Block), change.ExpiredAt.Millis(), change.Text,
		); err != nil {
			return fmt.Errorf("append post %d history: %w", p.ID, err)
		}
	}
	return nil
}

type moderationColumns struct {
	block       sql.NullInt64
	at          sql.NullInt64
	moderatorID sql.NullString
	rationale   sql.NullString
}

func toModerationColumns(m *forum.ModerationAction) moderationColumns {
	if m == nil {
		return moderationColumns{}
	}
	return moderationColumns{
		block:       sql.NullInt64{Int64: int64(m.ModeratedAt.Block), Valid: true},
		at:          sql.NullInt64{Int64: m.ModeratedAt.Millis(), Valid: true},
		moderatorID: sql.NullString{String: string(m.ModeratorID), Valid: true},
		rationale:   sql.NullString{String: m.Rationale, Valid: true},
	}
}

func (m moderationColumns) action() *forum.ModerationAction {
	if !m.moderatorID.Valid {
		return nil
	}
	return &forum.ModerationAction{
		ModeratedAt: stamp.FromMillis(uint64(m.block.Int64), m.at.Int64),
		ModeratorID: forum.AccountID(m.moderatorID.String),
		Rationale:   m.rationale.String,
	}
}

// Cursor, sudo and settings cells live in forum_meta.

func (t *tx) meta(key string) (string, bool, error) {
	var value string
	err := t.q.QueryRowContext(t.ctx, `SELECT value FROM forum_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

func (t *tx) setMeta(key, value string) error {
	if _, err := t.q.ExecContext(t.ctx, `
INSERT INTO forum_meta (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

func (t *tx) deleteMeta(key string) error {
	if _, err := t.q.ExecContext(t.ctx, `DELETE FROM forum_meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete meta %s: %w", key, err)
	}
	return nil
}

// cursor reads a uint64 cursor, defaulting to 1.
func (t *tx) cursor(key string) (uint64, error) {
	value, ok, err := t.meta(key)
	if err != nil || !ok {
		return 1, err
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse meta %s: %w", key, err)
	}
	return n, nil
}

func (t *tx) setCursor(key string, n uint64) error {
	return t.setMeta(key, strconv.FormatUint(n, 10))
}

func (t *tx) NextCategoryID() (forum.CategoryID, error) {
	n, err := t.cursor(metaNextCategoryID)
	return forum.CategoryID(n), err
}

func (t *tx) NextThreadID() (forum.ThreadID, error) {
	n, err := t.cursor(metaNextThreadID)
	return forum.ThreadID(n), err
}

func (t *tx) NextPostID() (forum.PostID, error) {
	n, err := t.cursor(metaNextPostID)
	return forum.PostID(n), err
}

func (t *tx) SetNextCategoryID(id forum.CategoryID) error {
	return t.setCursor(metaNextCategoryID, uint64(id))
}

func (t *tx) SetNextThreadID(id forum.ThreadID) error {
	return t.setCursor(metaNextThreadID, uint64(id))
}

func (t *tx) SetNextPostID(id forum.PostID) error {
	return t.setCursor(metaNextPostID, uint64(id))
}

func (t *tx) ForumSudo() (forum.AccountID, bool, error) {
	value, ok, err := t.meta(metaForumSudo)
	return forum.AccountID(value), ok, err
}

func (t *tx) SetForumSudo(account forum.AccountID, ok bool) error {
	if !ok {
		return t.deleteMeta(metaForumSudo)
	}
	return t.setMeta(metaForumSudo, string(account))
}

func (t *tx) Settings() (forum.Settings, error) {
	value, ok, err := t.meta(metaSettings)
	if err != nil {
		return forum.Settings{}, err
	}
	if !ok {
		return forum.DefaultSettings(), nil
	}
	var settings forum.Settings
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return forum.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

func (t *tx) SetSettings(s forum.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return t.setMeta(metaSettings, string(data))
}
