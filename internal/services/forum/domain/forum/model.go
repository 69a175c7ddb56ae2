// Package forum holds the category, thread and post records together with
// the pure decide and apply functions that move them between states.
package forum

import (
	"strconv"

	"github.com/agoraledger/forum/internal/services/forum/domain/constraint"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
)

// CategoryID identifies a category.
type CategoryID uint64

// ThreadID identifies a thread.
type ThreadID uint64

// PostID identifies a post.
type PostID uint64

// AccountID is the host's opaque account encoding.
type AccountID string

// DefaultMaxCategoryDepth is the greatest category depth when genesis does
// not configure one. Root categories have depth 0.
const DefaultMaxCategoryDepth uint32 = 3

func (id CategoryID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (id ThreadID) String() string   { return strconv.FormatUint(uint64(id), 10) }
func (id PostID) String() string     { return strconv.FormatUint(uint64(id), 10) }

// ChildPosition locates a non-root category under its parent.
type ChildPosition struct {
	ParentID                CategoryID `json:"parent_id"`
	ChildNrInParentCategory uint32     `json:"child_nr_in_parent_category"`
}

// ModerationAction is attached once and never cleared.
type ModerationAction struct {
	ModeratedAt stamp.Timestamp `json:"moderated_at"`
	ModeratorID AccountID       `json:"moderator_id"`
	Rationale   string          `json:"rationale"`
}

// PostTextChange records a text a post carried before an edit.
type PostTextChange struct {
	ExpiredAt stamp.Timestamp `json:"expired_at"`
	Text      string          `json:"text"`
}

// Category is a node in the category tree.
type Category struct {
	ID                          CategoryID      `json:"id"`
	Title                       string          `json:"title"`
	Description                 string          `json:"description"`
	CreatedAt                   stamp.Timestamp `json:"created_at"`
	Deleted                     bool            `json:"deleted"`
	Archived                    bool            `json:"archived"`
	NumDirectSubcategories      uint32          `json:"num_direct_subcategories"`
	NumDirectUnmoderatedThreads uint32          `json:"num_direct_unmoderated_threads"`
	NumDirectModeratedThreads   uint32          `json:"num_direct_moderated_threads"`
	PositionInParent            *ChildPosition  `json:"position_in_parent,omitempty"`
	ModeratorID                 AccountID       `json:"moderator_id"`
}

// IsRoot reports whether the category has no parent.
func (c Category) IsRoot() bool {
	return c.PositionInParent == nil
}

// NumThreadsCreated is the number of threads ever created directly in c.
func (c Category) NumThreadsCreated() uint32 {
	return c.NumDirectUnmoderatedThreads + c.NumDirectModeratedThreads
}

// Thread groups posts under a category.
type Thread struct {
	ID                  ThreadID          `json:"id"`
	Title               string            `json:"title"`
	CategoryID          CategoryID        `json:"category_id"`
	NrInCategory        uint32            `json:"nr_in_category"`
	Moderation          *ModerationAction `json:"moderation,omitempty"`
	NumUnmoderatedPosts uint32            `json:"num_unmoderated_posts"`
	NumModeratedPosts   uint32            `json:"num_moderated_posts"`
	CreatedAt           stamp.Timestamp   `json:"created_at"`
	AuthorID            AccountID         `json:"author_id"`
}

// IsModerated reports whether a moderation action is attached.
func (t Thread) IsModerated() bool {
	return t.Moderation != nil
}

// NumPostsCreated is the number of posts ever created in t.
func (t Thread) NumPostsCreated() uint32 {
	return t.NumUnmoderatedPosts + t.NumModeratedPosts
}

// Post is a single message in a thread.
type Post struct {
	ID                PostID            `json:"id"`
	ThreadID          ThreadID          `json:"thread_id"`
	NrInThread        uint32            `json:"nr_in_thread"`
	CurrentText       string            `json:"current_text"`
	Moderation        *ModerationAction `json:"moderation,omitempty"`
	TextChangeHistory []PostTextChange  `json:"text_change_history"`
	CreatedAt         stamp.Timestamp   `json:"created_at"`
	AuthorID          AccountID         `json:"author_id"`
}

// IsModerated reports whether a moderation action is attached.
func (p Post) IsModerated() bool {
	return p.Moderation != nil
}

// Settings are fixed at genesis.
type Settings struct {
	MaxCategoryDepth uint32         `json:"max_category_depth"`
	Constraints      constraint.Set `json:"constraints"`
}

// DefaultSettings returns the settings of a fresh forum.
func DefaultSettings() Settings {
	return Settings{
		MaxCategoryDepth: DefaultMaxCategoryDepth,
		Constraints:      constraint.DefaultSet(),
	}
}
