package forum

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/services/forum/domain/command"
	"github.com/agoraledger/forum/internal/services/forum/domain/event"
	"github.com/agoraledger/forum/internal/services/forum/domain/stamp"
)

// Decide evaluates every precondition of cmd against view and returns the
// event it produces or the first rejection. It never writes. The returned
// error is reserved for storage failures and corrupt state.
func Decide(view Reader, caller Caller, cmd command.Command, role command.Role, at stamp.Timestamp) (command.Decision, error) {
	if err := ensureRole(view, caller, role); err != nil {
		return rejectOrFail(err)
	}
	settings, err := view.Settings()
	if err != nil {
		return command.Decision{}, err
	}
	d := decider{view: view, caller: caller, cmd: cmd, at: at, settings: settings}

	var evt event.Event
	switch cmd.Type {
	case command.TypeSetForumSudo:
		evt, err = d.setForumSudo()
	case command.TypeCreateCategory:
		evt, err = d.createCategory()
	case command.TypeUpdateCategory:
		evt, err = d.updateCategory()
	case command.TypeCreateThread:
		evt, err = d.createThread()
	case command.TypeModerateThread:
		evt, err = d.moderateThread()
	case command.TypeAddPost:
		evt, err = d.addPost()
	case command.TypeEditPostText:
		evt, err = d.editPostText()
	case command.TypeModeratePost:
		evt, err = d.moderatePost()
	default:
		return command.Decision{}, apperrors.New(apperrors.CodeCommandInvalid, fmt.Sprintf("unhandled command type %s", cmd.Type))
	}
	if err != nil {
		return rejectOrFail(err)
	}
	return command.Accept(evt), nil
}

// rejectOrFail turns domain errors into rejections and passes everything else
// through as a failure.
func rejectOrFail(err error) (command.Decision, error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeForumStateCorrupt, apperrors.CodeCommandInvalid, apperrors.CodeUnknown:
			return command.Decision{}, err
		}
		return command.Reject(appErr), nil
	}
	return command.Decision{}, err
}

// allocate reads an id cursor. The last uint64 is never handed out, so the
// cursor can always advance past the id it returns.
func allocate[ID ~uint64](next func() (ID, error), kind string) (ID, error) {
	id, err := next()
	if err != nil {
		return 0, err
	}
	if id == 0 || uint64(id) == math.MaxUint64 {
		return 0, corrupt("%s id cursor at %d cannot advance", kind, uint64(id))
	}
	return id, nil
}

type decider struct {
	view     Reader
	caller   Caller
	cmd      command.Command
	at       stamp.Timestamp
	settings Settings
}

func (d decider) payload(target any) error {
	if err := json.Unmarshal(d.cmd.PayloadJSON, target); err != nil {
		return apperrors.Wrap(apperrors.CodeCommandInvalid, fmt.Sprintf("decode %s payload", d.cmd.Type), err)
	}
	return nil
}

func (d decider) event(typ event.Type, entityType, entityID string, payload any) (event.Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return event.Event{
		Type:        typ,
		EntityType:  entityType,
		EntityID:    entityID,
		ActorID:     string(d.caller.Account),
		RequestID:   d.cmd.RequestID,
		Block:       d.at.Block,
		Timestamp:   d.at.Time,
		PayloadJSON: data,
	}, nil
}

func (d decider) setForumSudo() (event.Event, error) {
	var p SetForumSudoPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	if p.NewSudo != nil && *p.NewSudo == "" {
		return event.Event{}, apperrors.New(apperrors.CodeCommandInvalid, "new sudo account is empty")
	}
	old := d.caller.Account
	return d.event(event.TypeForumSudoSet, event.EntityForum, event.EntityForum, ForumSudoSetPayload{
		OldSudo: &old,
		NewSudo: p.NewSudo,
	})
}

func (d decider) createCategory() (event.Event, error) {
	var p CreateCategoryPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	cs := d.settings.Constraints
	if err := cs.CategoryTitle.EnsureValid(len(p.Title), ErrCategoryTitleTooShort, ErrCategoryTitleTooLong); err != nil {
		return event.Event{}, err
	}
	if err := cs.CategoryDescription.EnsureValid(len(p.Description), ErrCategoryDescriptionTooShort, ErrCategoryDescriptionTooLong); err != nil {
		return event.Event{}, err
	}

	var position *ChildPosition
	if p.ParentID != nil {
		path, err := categoryPath(d.view, *p.ParentID, d.settings.MaxCategoryDepth)
		if err != nil {
			return event.Event{}, err
		}
		if !pathIsMutable(path) {
			return event.Event{}, ErrAncestorImmutable
		}
		if uint64(len(path)) > uint64(d.settings.MaxCategoryDepth) {
			return event.Event{}, maxDepthExceeded(d.settings.MaxCategoryDepth)
		}
		parent := path[0]
		position = &ChildPosition{
			ParentID:                parent.ID,
			ChildNrInParentCategory: parent.NumDirectSubcategories + 1,
		}
	}

	id, err := allocate(d.view.NextCategoryID, "category")
	if err != nil {
		return event.Event{}, err
	}
	category := Category{
		ID:               id,
		Title:            p.Title,
		Description:      p.Description,
		CreatedAt:        d.at,
		PositionInParent: position,
		ModeratorID:      d.caller.Account,
	}
	return d.event(event.TypeCategoryCreated, event.EntityCategory, id.String(), CategoryCreatedPayload{Category: category})
}

func (d decider) updateCategory() (event.Event, error) {
	var p UpdateCategoryPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	if p.Archived == nil && p.Deleted == nil {
		return event.Event{}, ErrNothingToUpdate
	}
	path, err := categoryPath(d.view, p.CategoryID, d.settings.MaxCategoryDepth)
	if err != nil {
		return event.Event{}, err
	}
	if !pathIsMutable(path[1:]) {
		return event.Event{}, ErrAncestorImmutable
	}
	category := path[0]
	if category.Deleted && (p.Deleted == nil || *p.Deleted) {
		return event.Event{}, ErrCannotUnarchiveWhileDeleted
	}
	return d.event(event.TypeCategoryUpdated, event.EntityCategory, category.ID.String(), CategoryUpdatedPayload{
		CategoryID: category.ID,
		Archived:   p.Archived,
		Deleted:    p.Deleted,
	})
}

func (d decider) createThread() (event.Event, error) {
	var p CreateThreadPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	path, err := categoryPath(d.view, p.CategoryID, d.settings.MaxCategoryDepth)
	if err != nil {
		return event.Event{}, err
	}
	if !pathIsMutable(path) {
		return event.Event{}, ErrAncestorImmutable
	}
	cs := d.settings.Constraints
	if err := cs.ThreadTitle.EnsureValid(len(p.Title), ErrThreadTitleTooShort, ErrThreadTitleTooLong); err != nil {
		return event.Event{}, err
	}
	if err := cs.PostText.EnsureValid(len(p.Text), ErrPostTextTooShort, ErrPostTextTooLong); err != nil {
		return event.Event{}, err
	}

	threadID, err := allocate(d.view.NextThreadID, "thread")
	if err != nil {
		return event.Event{}, err
	}
	postID, err := allocate(d.view.NextPostID, "post")
	if err != nil {
		return event.Event{}, err
	}
	category := path[0]
	thread := Thread{
		ID:                  threadID,
		Title:               p.Title,
		CategoryID:          category.ID,
		NrInCategory:        category.NumThreadsCreated() + 1,
		NumUnmoderatedPosts: 1,
		CreatedAt:           d.at,
		AuthorID:            d.caller.Account,
	}
	first := Post{
		ID:                postID,
		ThreadID:          threadID,
		NrInThread:        1,
		CurrentText:       p.Text,
		TextChangeHistory: []PostTextChange{},
		CreatedAt:         d.at,
		AuthorID:          d.caller.Account,
	}
	return d.event(event.TypeThreadCreated, event.EntityThread, threadID.String(), ThreadCreatedPayload{
		Thread:    thread,
		FirstPost: first,
	})
}

func (d decider) moderateThread() (event.Event, error) {
	var p ModerateThreadPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	thread, err := d.thread(p.ThreadID)
	if err != nil {
		return event.Event{}, err
	}
	if thread.IsModerated() {
		return event.Event{}, ErrThreadAlreadyModerated
	}
	cs := d.settings.Constraints
	if err := cs.ThreadModerationRationale.EnsureValid(len(p.Rationale), ErrThreadRationaleTooShort, ErrThreadRationaleTooLong); err != nil {
		return event.Event{}, err
	}
	if err := ensureCategoryMutable(d.view, thread.CategoryID, d.settings.MaxCategoryDepth); err != nil {
		return event.Event{}, d.parentLink(err, "thread", thread.ID.String())
	}
	return d.event(event.TypeThreadModerated, event.EntityThread, thread.ID.String(), ThreadModeratedPayload{
		ThreadID:   thread.ID,
		Moderation: d.moderation(p.Rationale),
	})
}

func (d decider) addPost() (event.Event, error) {
	var p AddPostPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	thread, err := d.thread(p.ThreadID)
	if err != nil {
		return event.Event{}, err
	}
	if thread.IsModerated() {
		return event.Event{}, ErrThreadModerated
	}
	if err := ensureCategoryMutable(d.view, thread.CategoryID, d.settings.MaxCategoryDepth); err != nil {
		return event.Event{}, d.parentLink(err, "thread", thread.ID.String())
	}
	cs := d.settings.Constraints
	if err := cs.PostText.EnsureValid(len(p.Text), ErrPostTextTooShort, ErrPostTextTooLong); err != nil {
		return event.Event{}, err
	}

	postID, err := allocate(d.view.NextPostID, "post")
	if err != nil {
		return event.Event{}, err
	}
	post := Post{
		ID:                postID,
		ThreadID:          thread.ID,
		NrInThread:        thread.NumPostsCreated() + 1,
		CurrentText:       p.Text,
		TextChangeHistory: []PostTextChange{},
		CreatedAt:         d.at,
		AuthorID:          d.caller.Account,
	}
	return d.event(event.TypePostAdded, event.EntityPost, postID.String(), PostAddedPayload{Post: post})
}

func (d decider) editPostText() (event.Event, error) {
	var p EditPostTextPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	post, err := d.mutablePost(p.PostID)
	if err != nil {
		return event.Event{}, err
	}
	if post.AuthorID != d.caller.Account {
		return event.Event{}, ErrNotPostAuthor
	}
	cs := d.settings.Constraints
	if err := cs.PostText.EnsureValid(len(p.Text), ErrPostTextTooShort, ErrPostTextTooLong); err != nil {
		return event.Event{}, err
	}
	return d.event(event.TypePostTextUpdated, event.EntityPost, post.ID.String(), PostTextUpdatedPayload{
		PostID:    post.ID,
		Text:      p.Text,
		Change:    PostTextChange{ExpiredAt: d.at, Text: post.CurrentText},
		EditCount: uint32(len(post.TextChangeHistory)) + 1,
	})
}

func (d decider) moderatePost() (event.Event, error) {
	var p ModeratePostPayload
	if err := d.payload(&p); err != nil {
		return event.Event{}, err
	}
	post, ok, err := d.view.Post(p.PostID)
	if err != nil {
		return event.Event{}, err
	}
	if !ok {
		return event.Event{}, PostNotFound(p.PostID)
	}
	if post.IsModerated() {
		return event.Event{}, ErrPostAlreadyModerated
	}
	if err := d.mutableThread(post); err != nil {
		return event.Event{}, err
	}
	cs := d.settings.Constraints
	if err := cs.PostModerationRationale.EnsureValid(len(p.Rationale), ErrPostRationaleTooShort, ErrPostRationaleTooLong); err != nil {
		return event.Event{}, err
	}
	return d.event(event.TypePostModerated, event.EntityPost, post.ID.String(), PostModeratedPayload{
		PostID:     post.ID,
		Moderation: d.moderation(p.Rationale),
	})
}

func (d decider) thread(id ThreadID) (Thread, error) {
	thread, ok, err := d.view.Thread(id)
	if err != nil {
		return Thread{}, err
	}
	if !ok {
		return Thread{}, ThreadNotFound(id)
	}
	return thread, nil
}

// mutablePost requires the post to exist, be unmoderated, and sit in a
// mutable thread.
func (d decider) mutablePost(id PostID) (Post, error) {
	post, ok, err := d.view.Post(id)
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, PostNotFound(id)
	}
	if post.IsModerated() {
		return Post{}, ErrPostModerated
	}
	if err := d.mutableThread(post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// mutableThread requires the post's thread to be unmoderated with a mutable
// category path.
func (d decider) mutableThread(post Post) error {
	thread, ok, err := d.view.Thread(post.ThreadID)
	if err != nil {
		return err
	}
	if !ok {
		return corrupt("post %d: dangling thread link to %d", post.ID, post.ThreadID)
	}
	if thread.IsModerated() {
		return ErrThreadModerated
	}
	if err := ensureCategoryMutable(d.view, thread.CategoryID, d.settings.MaxCategoryDepth); err != nil {
		return d.parentLink(err, "thread", thread.ID.String())
	}
	return nil
}

// parentLink reports a missing parent category of a stored record as
// corruption rather than a user error.
func (d decider) parentLink(err error, kind, id string) error {
	if apperrors.IsCode(err, apperrors.CodeCategoryNotFound) {
		return corrupt("%s %s: dangling category link", kind, id)
	}
	return err
}

func (d decider) moderation(rationale string) ModerationAction {
	return ModerationAction{
		ModeratedAt: d.at,
		ModeratorID: d.caller.Account,
		Rationale:   rationale,
	}
}
