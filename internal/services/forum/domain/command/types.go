package command

// Forum command types.
const (
	TypeSetForumSudo   Type = "forum.set_sudo"
	TypeCreateCategory Type = "category.create"
	TypeUpdateCategory Type = "category.update"
	TypeCreateThread   Type = "thread.create"
	TypeModerateThread Type = "thread.moderate"
	TypeAddPost        Type = "post.add"
	TypeEditPostText   Type = "post.edit_text"
	TypeModeratePost   Type = "post.moderate"
)
