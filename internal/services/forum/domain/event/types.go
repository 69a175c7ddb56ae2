package event

// Forum event types. Every accepted command emits exactly one of these.
const (
	TypeForumSudoSet    Type = "forum.sudo_set"
	TypeCategoryCreated Type = "category.created"
	TypeCategoryUpdated Type = "category.updated"
	TypeThreadCreated   Type = "thread.created"
	TypeThreadModerated Type = "thread.moderated"
	TypePostAdded       Type = "post.added"
	TypePostTextUpdated Type = "post.text_updated"
	TypePostModerated   Type = "post.moderated"
)
