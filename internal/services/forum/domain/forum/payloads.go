package forum

// Command payloads.

// SetForumSudoPayload replaces or clears the sudo account.
type SetForumSudoPayload struct {
	NewSudo *AccountID `json:"new_sudo,omitempty"`
}

// CreateCategoryPayload creates a root category or a subcategory.
type CreateCategoryPayload struct {
	ParentID    *CategoryID `json:"parent_id,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
}

// UpdateCategoryPayload sets the flags that are present.
type UpdateCategoryPayload struct {
	CategoryID CategoryID `json:"category_id"`
	Archived   *bool      `json:"archived,omitempty"`
	Deleted    *bool      `json:"deleted,omitempty"`
}

// CreateThreadPayload opens a thread with its first post.
type CreateThreadPayload struct {
	CategoryID CategoryID `json:"category_id"`
	Title      string     `json:"title"`
	Text       string     `json:"text"`
}

// ModerateThreadPayload moderates a thread.
type ModerateThreadPayload struct {
	ThreadID  ThreadID `json:"thread_id"`
	Rationale string   `json:"rationale"`
}

// AddPostPayload appends a post to a thread.
type AddPostPayload struct {
	ThreadID ThreadID `json:"thread_id"`
	Text     string   `json:"text"`
}

// EditPostTextPayload replaces the text of a post.
type EditPostTextPayload struct {
	PostID PostID `json:"post_id"`
	Text   string `json:"text"`
}

// ModeratePostPayload moderates a post.
type ModeratePostPayload struct {
	PostID    PostID `json:"post_id"`
	Rationale string `json:"rationale"`
}

// Event payloads. Each carries enough to apply the event without re-reading
// the command.

// ForumSudoSetPayload records a sudo change.
type ForumSudoSetPayload struct {
	OldSudo *AccountID `json:"old_sudo,omitempty"`
	NewSudo *AccountID `json:"new_sudo,omitempty"`
}

// CategoryCreatedPayload carries the new category.
type CategoryCreatedPayload struct {
	Category Category `json:"category"`
}

// CategoryUpdatedPayload carries the flags that were applied.
type CategoryUpdatedPayload struct {
	CategoryID CategoryID `json:"category_id"`
	Archived   *bool      `json:"archived,omitempty"`
	Deleted    *bool      `json:"deleted,omitempty"`
}

// ThreadCreatedPayload carries the new thread and its first post.
type ThreadCreatedPayload struct {
	Thread    Thread `json:"thread"`
	FirstPost Post   `json:"first_post"`
}

// ThreadModeratedPayload carries the attached moderation.
type ThreadModeratedPayload struct {
	ThreadID   ThreadID         `json:"thread_id"`
	Moderation ModerationAction `json:"moderation"`
}

// PostAddedPayload carries the new post.
type PostAddedPayload struct {
	Post Post `json:"post"`
}

// PostTextUpdatedPayload carries the new text and the history entry holding
// the replaced one.
type PostTextUpdatedPayload struct {
	PostID PostID         `json:"post_id"`
	Text   string         `json:"text"`
	Change PostTextChange `json:"change"`
	// EditCount is the history length after Change is appended, so the
	// first edit reports 1.
	EditCount uint32 `json:"edit_count"`
}

// PostModeratedPayload carries the attached moderation.
type PostModeratedPayload struct {
	PostID     PostID           `json:"post_id"`
	Moderation ModerationAction `json:"moderation"`
}
