////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// CreatePost sends a draft post with optional file attachments. The
// optimistic record is visible in the store when CreatePost returns; the
// network call runs deferred and its outcome is folded in asynchronously.
// A retry carrying an already-outstanding pending id is deduplicated into
// an immediate success with no second network call.
func (m *Manager) CreatePost(ctx context.Context, draft *model.Post,
	files []*model.FileInfo) error {
	prepared, duplicate, err := m.prepareSend(draft, files)
	if err != nil {
		return err
	}
	if duplicate {
		return nil
	}

	m.applyOptimisticCreate(prepared, files)

	m.sends.Add(1)
	go func() {
		defer m.sends.Done()
		// The completion is always processed, even if the issuing caller
		// has moved on; cancellation is not supported at this layer.
		m.confirmCreate(context.Background(), prepared, files, false)
	}()
	return nil
}

// CreatePostImmediately sends a draft post and waits for the server's
// verdict. On failure the optimistic record is removed outright and the
// error returned; no failed placeholder is left behind.
func (m *Manager) CreatePostImmediately(ctx context.Context,
	draft *model.Post, files []*model.FileInfo) (*model.Post, error) {
	prepared, duplicate, err := m.prepareSend(draft, files)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return m.st.Post(draft.PendingPostId), nil
	}

	m.applyOptimisticCreate(prepared, files)
	return m.confirmCreate(ctx, prepared, files, true)
}

// prepareSend stamps the draft with its pending identity and local
// timestamps and reserves the pending id. duplicate is true when a send
// with the same pending id is already outstanding.
func (m *Manager) prepareSend(draft *model.Post,
	files []*model.FileInfo) (*model.Post, bool, error) {
	if draft.ChannelId == "" {
		return nil, false, MissingChannelErr
	}
	if draft.Kind() == model.CombinedPost {
		return nil, false, CombinedPostSendErr
	}

	prepared := draft.Clone()
	prepared.UserId = m.st.CurrentUserId()

	// A supplied pending id marks a retry of the same logical send.
	if prepared.PendingPostId == "" {
		prepared.PendingPostId =
			model.PendingPostId(prepared.UserId, m.now())
	}
	prepared.Id = prepared.PendingPostId

	// Stamp before reserving: the reservation journals the draft, and a
	// replay after restart must see the local timestamp and attachments.
	now := m.now().UnixMilli()
	prepared.CreateAt = now
	prepared.UpdateAt = now
	for _, f := range files {
		prepared.FileIds = append(prepared.FileIds, f.Id)
	}

	if !m.tracker.reserve(prepared) {
		jww.INFO.Printf("[SYNC] Deduplicated send of %s",
			prepared.PendingPostId)
		return nil, true, nil
	}
	return prepared, false, nil
}

// applyOptimisticCreate surfaces the pending post locally before the
// network confirms it. File associations land first so the pending post
// never renders without its attachments.
func (m *Manager) applyOptimisticCreate(post *model.Post,
	files []*model.FileInfo) {
	actions := make([]store.Action, 0, 3)
	if len(files) > 0 {
		actions = append(actions, store.Action{
			Type:   store.ReceivedFilesForPost,
			PostId: post.Id,
			Files:  files,
		})
	}
	actions = append(actions,
		store.Action{Type: store.ReceivedNewPost, Post: post},
		store.Action{
			Type:   store.RequestStatusChanged,
			Family: store.FamilyCreatePost,
			Status: store.RequestStarted,
		})
	m.st.DispatchAll(actions...)
}

// confirmCreate runs the effect and commit-or-rollback phases of a create.
// The pending reservation is released exactly once whatever the outcome.
// immediate selects the CreatePostImmediately failure policy: remove the
// optimistic record instead of marking it failed.
func (m *Manager) confirmCreate(ctx context.Context, post *model.Post,
	files []*model.FileInfo, immediate bool) (*model.Post, error) {
	defer m.tracker.release(post.PendingPostId)

	confirmed, err := runOptimistic(ctx, optimisticOp{
		effect: func(ctx context.Context) (interface{}, error) {
			wire := post.Clone()
			// The server is authoritative for ordering.
			wire.CreateAt = 0
			return m.remote.CreatePost(ctx, wire)
		},
		commit: func(confirmed interface{}) {
			created := confirmed.(*model.Post)
			if created.PendingPostId == "" {
				created.PendingPostId = post.PendingPostId
			}
			actions := []store.Action{
				{Type: store.ReceivedPost, Post: created},
				{Type: store.ChannelPostCreated,
					ChannelId: created.ChannelId},
				{Type: store.RequestStatusChanged,
					Family: store.FamilyCreatePost,
					Status: store.RequestSucceeded},
			}
			if len(files) > 0 {
				actions = append(actions, store.Action{
					Type:   store.ReceivedFilesForPost,
					PostId: created.Id,
					Files:  files,
				})
			}
			m.st.DispatchAll(actions...)
		},
		rollback: func(err error) {
			m.rollbackCreate(post, err, immediate)
		},
	})
	if err != nil {
		return nil, err
	}
	return confirmed.(*model.Post), nil
}

func (m *Manager) rollbackCreate(post *model.Post, err error,
	immediate bool) {
	m.checkSessionExpiry(err)
	jww.ERROR.Printf("[SYNC] Create of %s failed: %+v",
		post.PendingPostId, err)

	marker := store.Action{
		Type:   store.RequestStatusChanged,
		Family: store.FamilyCreatePost,
		Status: store.RequestFailed,
	}

	if immediate || model.ReasonOf(err).DiscardsOptimisticPost() {
		m.st.DispatchAll(
			store.Action{Type: store.PostRemoved, Post: post}, marker)
		return
	}

	failed := post.Clone()
	failed.Failed = true
	failed.UpdateAt = m.now().UnixMilli()
	m.st.DispatchAll(
		store.Action{Type: store.ReceivedPost, Post: failed}, marker)
}

// EditPost patches a post's content server-side. On success both the
// request-lifecycle marker and the post record are refreshed.
func (m *Manager) EditPost(ctx context.Context, post *model.Post) (
	*model.Post, error) {
	if post.Kind() == model.CombinedPost {
		return nil, CombinedPostSendErr
	}
	m.st.Dispatch(store.Action{
		Type:   store.RequestStatusChanged,
		Family: store.FamilyEditPost,
		Status: store.RequestStarted,
	})

	patched, err := m.remote.PatchPost(ctx, post)
	if err != nil {
		m.logError("EditPost", err)
		m.st.Dispatch(store.Action{
			Type:   store.RequestStatusChanged,
			Family: store.FamilyEditPost,
			Status: store.RequestFailed,
			Err:    err,
		})
		return nil, err
	}

	m.st.DispatchAll(
		store.Action{Type: store.ReceivedPost, Post: patched},
		store.Action{
			Type:   store.RequestStatusChanged,
			Family: store.FamilyEditPost,
			Status: store.RequestSucceeded,
		})
	return patched, nil
}

// DeletePost marks a post deleted. A combined-activity post fans out to
// its member posts; the combined record itself is never deleted remotely.
// A failed remote delete rolls the local mark back.
func (m *Manager) DeletePost(ctx context.Context, post *model.Post) error {
	switch post.Kind() {
	case model.CombinedPost:
		return m.fanOut(post, func(member *model.Post) error {
			return m.DeletePost(ctx, member)
		})
	case model.SinglePost:
	}

	snapshot := m.st.Post(post.Id)

	_, err := runOptimistic(ctx, optimisticOp{
		apply: func() {
			m.st.Dispatch(store.Action{Type: store.PostDeleted, Post: post})
		},
		effect: func(ctx context.Context) (interface{}, error) {
			return nil, m.remote.DeletePost(ctx, post.Id)
		},
		rollback: func(err error) {
			m.logError("DeletePost", err)
			if snapshot != nil {
				m.st.Dispatch(store.Action{
					Type: store.ReceivedPost, Post: snapshot})
			}
		},
	})
	return err
}

// RemovePost erases a post from local state entirely, e.g. to abandon a
// failed pending send. Combined posts fan out to their members; no network
// call is made.
func (m *Manager) RemovePost(post *model.Post) error {
	switch post.Kind() {
	case model.CombinedPost:
		return m.fanOut(post, m.RemovePost)
	case model.SinglePost:
	}
	m.st.Dispatch(store.Action{Type: store.PostRemoved, Post: post})
	return nil
}

// fanOut applies op to every member of a combined post, never to the
// combined record itself. The first member failure aborts the remainder.
func (m *Manager) fanOut(combined *model.Post,
	op func(*model.Post) error) error {
	for _, memberId := range combined.MemberIds() {
		member := m.st.Post(memberId)
		if member == nil {
			member = &model.Post{
				Id:        memberId,
				ChannelId: combined.ChannelId,
			}
		}
		if err := op(member); err != nil {
			return errors.WithMessagef(err,
				"fan-out on combined post %s member %s",
				combined.Id, memberId)
		}
	}
	return nil
}

// PinPost pins the post to its channel. The pin is not applied
// optimistically: the server call runs first and local state only follows
// a success, so no rollback exists.
func (m *Manager) PinPost(ctx context.Context, postId string) error {
	return m.setPinned(ctx, "PinPost", postId, true)
}

// UnpinPost removes the pin.
func (m *Manager) UnpinPost(ctx context.Context, postId string) error {
	return m.setPinned(ctx, "UnpinPost", postId, false)
}

func (m *Manager) setPinned(ctx context.Context, op, postId string,
	pinned bool) error {
	var err error
	if pinned {
		err = m.remote.PinPost(ctx, postId)
	} else {
		err = m.remote.UnpinPost(ctx, postId)
	}
	if err != nil {
		m.logError(op, err)
		return err
	}

	// Absent local copy: the next fetch reflects the server state.
	local := m.st.Post(postId)
	if local == nil {
		return nil
	}
	local.IsPinned = pinned
	local.UpdateAt = m.now().UnixMilli()
	m.st.Dispatch(store.Action{Type: store.ReceivedPost, Post: local})
	return nil
}

// AddReaction records an emoji reaction on a post. There is no optimistic
// phase; the local triple is added only once the server confirms.
func (m *Manager) AddReaction(ctx context.Context, postId,
	emojiName string) error {
	if err := model.ValidateReaction(emojiName); err != nil {
		return err
	}

	reaction := &model.Reaction{
		UserId:    m.st.CurrentUserId(),
		PostId:    postId,
		EmojiName: emojiName,
	}
	confirmed, err := m.remote.AddReaction(ctx, reaction)
	if err != nil {
		m.logError("AddReaction", err)
		return err
	}
	m.st.Dispatch(store.Action{
		Type: store.ReceivedReaction, Reaction: confirmed})
	return nil
}

// RemoveReaction removes the current user's reaction from a post. Removing
// a reaction that does not exist locally neither fails nor touches
// unrelated reactions.
func (m *Manager) RemoveReaction(ctx context.Context, postId,
	emojiName string) error {
	reaction := &model.Reaction{
		UserId:    m.st.CurrentUserId(),
		PostId:    postId,
		EmojiName: emojiName,
	}
	if err := m.remote.RemoveReaction(ctx, reaction); err != nil {
		m.logError("RemoveReaction", err)
		return err
	}
	m.st.Dispatch(store.Action{
		Type: store.ReactionDeleted, Reaction: reaction})
	return nil
}

// ReplayPendingSends re-issues every send journaled before a restart. The
// journal entry still holds its reservation, so the replay skips straight
// to the network phase; outcomes fold in asynchronously like CreatePost.
func (m *Manager) ReplayPendingSends() {
	for _, draft := range m.PendingSends() {
		draft := draft
		draft.UserId = m.st.CurrentUserId()
		draft.UpdateAt = m.now().UnixMilli()
		jww.INFO.Printf("[SYNC] Replaying pending send %s",
			draft.PendingPostId)

		m.applyOptimisticCreate(draft, nil)
		m.sends.Add(1)
		go func() {
			defer m.sends.Done()
			m.confirmCreate(context.Background(), draft, nil, false)
		}()
	}
}

// PendingSends rebuilds draft posts from the journal for explicit replay
// after a restart. Each draft keeps its original pending id so the replay
// deduplicates against anything still outstanding.
func (m *Manager) PendingSends() []*model.Post {
	journal := m.tracker.snapshot()
	out := make([]*model.Post, 0, len(journal))
	for _, ps := range journal {
		out = append(out, &model.Post{
			Id:            ps.PendingId,
			PendingPostId: ps.PendingId,
			ChannelId:     ps.ChannelId,
			RootId:        ps.RootId,
			Message:       ps.Message,
			FileIds:       ps.FileIds,
			CreateAt:      ps.CreateAt,
		})
	}
	return out
}
