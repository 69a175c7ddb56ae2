// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeForumSudoNotSet Code = "FORUM_SUDO_NOT_SET"
	CodeForumNotSudo    Code = "FORUM_NOT_SUDO"
	CodeForumNotMember  Code = "FORUM_NOT_A_MEMBER"

	// Category validation errors
	CodeCategoryTitleTooShort       Code = "CATEGORY_TITLE_TOO_SHORT"
	CodeCategoryTitleTooLong        Code = "CATEGORY_TITLE_TOO_LONG"
	CodeCategoryDescriptionTooShort Code = "CATEGORY_DESCRIPTION_TOO_SHORT"
	CodeCategoryDescriptionTooLong  Code = "CATEGORY_DESCRIPTION_TOO_LONG"

	// Thread and post validation errors
	CodeThreadTitleTooShort     Code = "THREAD_TITLE_TOO_SHORT"
	CodeThreadTitleTooLong      Code = "THREAD_TITLE_TOO_LONG"
	CodePostTextTooShort        Code = "POST_TEXT_TOO_SHORT"
	CodePostTextTooLong         Code = "POST_TEXT_TOO_LONG"
	CodeThreadRationaleTooShort Code = "THREAD_RATIONALE_TOO_SHORT"
	CodeThreadRationaleTooLong  Code = "THREAD_RATIONALE_TOO_LONG"
	CodePostRationaleTooShort   Code = "POST_RATIONALE_TOO_SHORT"
	CodePostRationaleTooLong    Code = "POST_RATIONALE_TOO_LONG"

	// Structural errors
	CodeCategoryNotFound                    Code = "CATEGORY_NOT_FOUND"
	CodeThreadNotFound                      Code = "THREAD_NOT_FOUND"
	CodePostNotFound                        Code = "POST_NOT_FOUND"
	CodeCategoryAncestorImmutable           Code = "CATEGORY_ANCESTOR_IMMUTABLE"
	CodeCategoryMaxDepthExceeded            Code = "CATEGORY_MAX_DEPTH_EXCEEDED"
	CodeCategoryNothingToUpdate             Code = "CATEGORY_NOTHING_TO_UPDATE"
	CodeCategoryCannotUnarchiveWhileDeleted Code = "CATEGORY_CANNOT_UNARCHIVE_WHILE_DELETED"
	CodeThreadAlreadyModerated              Code = "THREAD_ALREADY_MODERATED"
	CodePostAlreadyModerated                Code = "POST_ALREADY_MODERATED"
	CodeThreadModerated                     Code = "THREAD_MODERATED"
	CodePostModerated                       Code = "POST_MODERATED"
	CodePostNotAuthor                       Code = "POST_NOT_AUTHOR"

	// Transport and runtime errors
	CodeCallerUnauthenticated Code = "CALLER_UNAUTHENTICATED"
	CodeCommandInvalid        Code = "COMMAND_INVALID"
	CodeForumStateCorrupt     Code = "FORUM_STATE_CORRUPT"
	CodeNotFound              Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// PermissionDenied - caller lacks the required role
	case CodeForumSudoNotSet,
		CodeForumNotSudo,
		CodeForumNotMember,
		CodePostNotAuthor:
		return codes.PermissionDenied

	// InvalidArgument - validation failures, bad input
	case CodeCategoryTitleTooShort,
		CodeCategoryTitleTooLong,
		CodeCategoryDescriptionTooShort,
		CodeCategoryDescriptionTooLong,
		CodeThreadTitleTooShort,
		CodeThreadTitleTooLong,
		CodePostTextTooShort,
		CodePostTextTooLong,
		CodeThreadRationaleTooShort,
		CodeThreadRationaleTooLong,
		CodePostRationaleTooShort,
		CodePostRationaleTooLong,
		CodeCategoryNothingToUpdate,
		CodeCommandInvalid:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeCategoryAncestorImmutable,
		CodeCategoryMaxDepthExceeded,
		CodeCategoryCannotUnarchiveWhileDeleted,
		CodeThreadAlreadyModerated,
		CodePostAlreadyModerated,
		CodeThreadModerated,
		CodePostModerated:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeCategoryNotFound,
		CodeThreadNotFound,
		CodePostNotFound:
		return codes.NotFound

	case CodeCallerUnauthenticated:
		return codes.Unauthenticated

	default:
		return codes.Internal
	}
}
