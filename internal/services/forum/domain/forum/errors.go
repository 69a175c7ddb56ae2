package forum

import (
	"fmt"
	"strconv"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
)

var (
	ErrSudoNotSet    = apperrors.New(apperrors.CodeForumSudoNotSet, "forum sudo not set")
	ErrNotSudo       = apperrors.New(apperrors.CodeForumNotSudo, "origin not forum sudo")
	ErrNotMember     = apperrors.New(apperrors.CodeForumNotMember, "not forum user")
	ErrNotPostAuthor = apperrors.New(apperrors.CodePostNotAuthor, "account does not match post author")

	ErrCategoryTitleTooShort       = apperrors.New(apperrors.CodeCategoryTitleTooShort, "category title too short")
	ErrCategoryTitleTooLong        = apperrors.New(apperrors.CodeCategoryTitleTooLong, "category title too long")
	ErrCategoryDescriptionTooShort = apperrors.New(apperrors.CodeCategoryDescriptionTooShort, "category description too short")
	ErrCategoryDescriptionTooLong  = apperrors.New(apperrors.CodeCategoryDescriptionTooLong, "category description too long")
	ErrThreadTitleTooShort         = apperrors.New(apperrors.CodeThreadTitleTooShort, "thread title too short")
	ErrThreadTitleTooLong          = apperrors.New(apperrors.CodeThreadTitleTooLong, "thread title too long")
	ErrPostTextTooShort            = apperrors.New(apperrors.CodePostTextTooShort, "post text too short")
	ErrPostTextTooLong             = apperrors.New(apperrors.CodePostTextTooLong, "post text too long")
	ErrThreadRationaleTooShort     = apperrors.New(apperrors.CodeThreadRationaleTooShort, "thread moderation rationale too short")
	ErrThreadRationaleTooLong      = apperrors.New(apperrors.CodeThreadRationaleTooLong, "thread moderation rationale too long")
	ErrPostRationaleTooShort       = apperrors.New(apperrors.CodePostRationaleTooShort, "post moderation rationale too short")
	ErrPostRationaleTooLong        = apperrors.New(apperrors.CodePostRationaleTooLong, "post moderation rationale too long")

	ErrAncestorImmutable           = apperrors.New(apperrors.CodeCategoryAncestorImmutable, "ancestor category immutable, i.e. deleted or archived")
	ErrNothingToUpdate             = apperrors.New(apperrors.CodeCategoryNothingToUpdate, "category not being updated")
	ErrCannotUnarchiveWhileDeleted = apperrors.New(apperrors.CodeCategoryCannotUnarchiveWhileDeleted, "category cannot be unarchived when deleted")
	ErrThreadAlreadyModerated      = apperrors.New(apperrors.CodeThreadAlreadyModerated, "thread already moderated")
	ErrPostAlreadyModerated        = apperrors.New(apperrors.CodePostAlreadyModerated, "post already moderated")
	ErrThreadModerated             = apperrors.New(apperrors.CodeThreadModerated, "thread is moderated")
	ErrPostModerated               = apperrors.New(apperrors.CodePostModerated, "post is moderated")
)

// CategoryNotFound reports a missing category.
func CategoryNotFound(id CategoryID) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeCategoryNotFound,
		fmt.Sprintf("category %d does not exist", id),
		map[string]string{"CategoryID": id.String()})
}

// ThreadNotFound reports a missing thread.
func ThreadNotFound(id ThreadID) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeThreadNotFound,
		fmt.Sprintf("thread %d does not exist", id),
		map[string]string{"ThreadID": id.String()})
}

// PostNotFound reports a missing post.
func PostNotFound(id PostID) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodePostNotFound,
		fmt.Sprintf("post %d does not exist", id),
		map[string]string{"PostID": id.String()})
}

func maxDepthExceeded(max uint32) *apperrors.Error {
	return apperrors.WithMetadata(apperrors.CodeCategoryMaxDepthExceeded,
		fmt.Sprintf("maximum valid category depth of %d exceeded", max),
		map[string]string{"MaxDepth": strconv.FormatUint(uint64(max), 10)})
}

// corrupt reports a broken internal invariant. It is never a rejection.
func corrupt(format string, args ...any) error {
	return apperrors.New(apperrors.CodeForumStateCorrupt, fmt.Sprintf(format, args...))
}
