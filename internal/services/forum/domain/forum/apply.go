package forum

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/agoraledger/forum/internal/services/forum/domain/event"
)

// Apply folds one accepted event into state. Every lookup it performs was
// already checked by Decide, so a missing record here is corruption.
func Apply(state State, evt event.Event) error {
	switch evt.Type {
	case event.TypeForumSudoSet:
		var p ForumSudoSetPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		if p.NewSudo == nil {
			return state.SetForumSudo("", false)
		}
		return state.SetForumSudo(*p.NewSudo, true)

	case event.TypeCategoryCreated:
		var p CategoryCreatedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		return applyCategoryCreated(state, p.Category)

	case event.TypeCategoryUpdated:
		var p CategoryUpdatedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		category, err := mustCategory(state, p.CategoryID)
		if err != nil {
			return err
		}
		if p.Archived != nil {
			category.Archived = *p.Archived
		}
		if p.Deleted != nil {
			category.Deleted = *p.Deleted
		}
		return state.PutCategory(category)

	case event.TypeThreadCreated:
		var p ThreadCreatedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		return applyThreadCreated(state, p.Thread, p.FirstPost)

	case event.TypeThreadModerated:
		var p ThreadModeratedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		thread, err := mustThread(state, p.ThreadID)
		if err != nil {
			return err
		}
		category, err := mustCategory(state, thread.CategoryID)
		if err != nil {
			return err
		}
		if category.NumDirectUnmoderatedThreads == 0 {
			return corrupt("category %d: unmoderated thread counter underflow", category.ID)
		}
		moderation := p.Moderation
		thread.Moderation = &moderation
		category.NumDirectUnmoderatedThreads--
		category.NumDirectModeratedThreads++
		if err := state.PutThread(thread); err != nil {
			return err
		}
		return state.PutCategory(category)

	case event.TypePostAdded:
		var p PostAddedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		next, err := advance(uint64(p.Post.ID), "post")
		if err != nil {
			return err
		}
		thread, err := mustThread(state, p.Post.ThreadID)
		if err != nil {
			return err
		}
		thread.NumUnmoderatedPosts++
		if err := state.PutPost(p.Post); err != nil {
			return err
		}
		if err := state.PutThread(thread); err != nil {
			return err
		}
		return state.SetNextPostID(PostID(next))

	case event.TypePostTextUpdated:
		var p PostTextUpdatedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		post, err := mustPost(state, p.PostID)
		if err != nil {
			return err
		}
		post.TextChangeHistory = append(post.TextChangeHistory, p.Change)
		post.CurrentText = p.Text
		if uint32(len(post.TextChangeHistory)) != p.EditCount {
			return corrupt("post %d: edit count %d does not match history length %d", post.ID, p.EditCount, len(post.TextChangeHistory))
		}
		return state.PutPost(post)

	case event.TypePostModerated:
		var p PostModeratedPayload
		if err := decodeEvent(evt, &p); err != nil {
			return err
		}
		post, err := mustPost(state, p.PostID)
		if err != nil {
			return err
		}
		thread, err := mustThread(state, post.ThreadID)
		if err != nil {
			return err
		}
		if thread.NumUnmoderatedPosts == 0 {
			return corrupt("thread %d: unmoderated post counter underflow", thread.ID)
		}
		moderation := p.Moderation
		post.Moderation = &moderation
		thread.NumUnmoderatedPosts--
		thread.NumModeratedPosts++
		if err := state.PutPost(post); err != nil {
			return err
		}
		return state.PutThread(thread)

	default:
		return fmt.Errorf("apply: unknown event type %s", evt.Type)
	}
}

func applyCategoryCreated(state State, category Category) error {
	next, err := advance(uint64(category.ID), "category")
	if err != nil {
		return err
	}
	if category.PositionInParent != nil {
		parent, err := mustCategory(state, category.PositionInParent.ParentID)
		if err != nil {
			return err
		}
		parent.NumDirectSubcategories++
		if parent.NumDirectSubcategories != category.PositionInParent.ChildNrInParentCategory {
			return corrupt("category %d: child ordinal %d does not follow parent counter", category.ID, category.PositionInParent.ChildNrInParentCategory)
		}
		if err := state.PutCategory(parent); err != nil {
			return err
		}
	}
	if err := state.PutCategory(category); err != nil {
		return err
	}
	return state.SetNextCategoryID(CategoryID(next))
}

func applyThreadCreated(state State, thread Thread, first Post) error {
	nextThread, err := advance(uint64(thread.ID), "thread")
	if err != nil {
		return err
	}
	nextPost, err := advance(uint64(first.ID), "post")
	if err != nil {
		return err
	}
	category, err := mustCategory(state, thread.CategoryID)
	if err != nil {
		return err
	}
	category.NumDirectUnmoderatedThreads++
	if category.NumThreadsCreated() != thread.NrInCategory {
		return corrupt("thread %d: ordinal %d does not follow category counter", thread.ID, thread.NrInCategory)
	}
	if err := state.PutCategory(category); err != nil {
		return err
	}
	if err := state.PutThread(thread); err != nil {
		return err
	}
	if err := state.PutPost(first); err != nil {
		return err
	}
	if err := state.SetNextThreadID(ThreadID(nextThread)); err != nil {
		return err
	}
	return state.SetNextPostID(PostID(nextPost))
}

// advance returns the cursor value following id.
func advance(id uint64, kind string) (uint64, error) {
	if id == math.MaxUint64 {
		return 0, corrupt("%s id %d exhausts the cursor", kind, id)
	}
	return id + 1, nil
}

func decodeEvent(evt event.Event, target any) error {
	if err := json.Unmarshal(evt.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return nil
}

func mustCategory(state Reader, id CategoryID) (Category, error) {
	category, ok, err := state.Category(id)
	if err != nil {
		return Category{}, err
	}
	if !ok {
		return Category{}, corrupt("category %d missing during apply", id)
	}
	return category, nil
}

func mustThread(state Reader, id ThreadID) (Thread, error) {
	thread, ok, err := state.Thread(id)
	if err != nil {
		return Thread{}, err
	}
	if !ok {
		return Thread{}, corrupt("thread %d missing during apply", id)
	}
	return thread, nil
}

func mustPost(state Reader, id PostID) (Post, error) {
	post, ok, err := state.Post(id)
	if err != nil {
		return Post{}, err
	}
	if !ok {
		return Post{}, corrupt("post %d missing during apply", id)
	}
	return post, nil
}
