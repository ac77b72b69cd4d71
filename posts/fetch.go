////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// GetPost fetches one post and folds it into the store.
func (m *Manager) GetPost(ctx context.Context, postId string) (
	*model.Post, error) {
	post, err := m.remote.GetPost(ctx, postId)
	if err != nil {
		m.logError("GetPost", err)
		return nil, err
	}

	list := model.NewPostList()
	list.AddPost(post)
	if err = m.Prefetch(ctx, list.Posts); err != nil {
		return nil, err
	}

	m.st.Dispatch(store.Action{Type: store.ReceivedPost, Post: post})
	return post, nil
}

// GetPosts fetches one newest-first page of a channel.
func (m *Manager) GetPosts(ctx context.Context, channelId string,
	page int) (*model.PostList, error) {
	list, err := m.remote.GetPosts(
		ctx, channelId, page, m.params.PostsPerPage)
	return m.receiveList(
		ctx, "GetPosts", store.ReceivedPostsInChannel, channelId, list, err)
}

// GetPostsSince fetches every post in the channel changed after the
// given epoch-millisecond timestamp.
func (m *Manager) GetPostsSince(ctx context.Context, channelId string,
	since int64) (*model.PostList, error) {
	list, err := m.remote.GetPostsSince(ctx, channelId, since)
	return m.receiveList(
		ctx, "GetPostsSince", store.ReceivedPostsSince, channelId, list, err)
}

// GetPostsBefore fetches the page of posts older than postId.
func (m *Manager) GetPostsBefore(ctx context.Context, channelId,
	postId string, page int) (*model.PostList, error) {
	list, err := m.remote.GetPostsBefore(
		ctx, channelId, postId, page, m.params.PostsPerPage)
	return m.receiveList(
		ctx, "GetPostsBefore", store.ReceivedPostsBefore, channelId, list,
		err)
}

// GetPostsAfter fetches the page of posts newer than postId.
func (m *Manager) GetPostsAfter(ctx context.Context, channelId,
	postId string, page int) (*model.PostList, error) {
	list, err := m.remote.GetPostsAfter(
		ctx, channelId, postId, page, m.params.PostsPerPage)
	return m.receiveList(
		ctx, "GetPostsAfter", store.ReceivedPostsAfter, channelId, list, err)
}

// GetPostThread fetches the thread containing postId. Thread receipts do
// not touch any channel's page order.
func (m *Manager) GetPostThread(ctx context.Context, postId string) (
	*model.PostList, error) {
	list, err := m.remote.GetPostThread(ctx, postId)
	return m.receiveList(
		ctx, "GetPostThread", store.ReceivedPostsInThread, "", list, err)
}

// GetPostsUnread fetches the unread window of a channel for the current
// user.
func (m *Manager) GetPostsUnread(ctx context.Context, channelId string) (
	*model.PostList, error) {
	list, err := m.remote.GetPostsUnread(ctx, channelId,
		m.st.CurrentUserId(), m.params.UnreadLimit, m.params.UnreadLimit)
	return m.receiveList(
		ctx, "GetPostsUnread", store.ReceivedPosts, channelId, list, err)
}

// GetPostsAround fetches the pages either side of a pivot post plus its
// thread, concurrently, and merges them into one newest-first batch with
// the pivot between the after and before pages. Any single failure fails
// the whole operation; no partial merge is committed.
func (m *Manager) GetPostsAround(ctx context.Context, channelId,
	postId string) (*model.PostList, error) {
	perSide := m.params.PostsPerPage / 2

	var before, after, thread *model.PostList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, err = m.remote.GetPostsBefore(
			gctx, channelId, postId, 0, perSide)
		return err
	})
	g.Go(func() error {
		var err error
		after, err = m.remote.GetPostsAfter(
			gctx, channelId, postId, 0, perSide)
		return err
	})
	g.Go(func() error {
		var err error
		thread, err = m.remote.GetPostThread(gctx, postId)
		return err
	})
	if err := g.Wait(); err != nil {
		m.logError("GetPostsAround", err)
		m.failedFetchMarker(err)
		return nil, err
	}

	merged := model.NewPostList()
	merged.Order = make(
		[]string, 0, len(after.Order)+1+len(before.Order))
	merged.Order = append(merged.Order, after.Order...)
	merged.Order = append(merged.Order, postId)
	merged.Order = append(merged.Order, before.Order...)
	merged.NextPostId = after.NextPostId
	merged.PrevPostId = before.PrevPostId
	for _, list := range []*model.PostList{before, after, thread} {
		for id, post := range list.Posts {
			merged.Posts[id] = post
		}
	}

	return m.receiveList(
		ctx, "GetPostsAround", store.ReceivedPosts, channelId, merged, nil)
}

// receiveList is the shared tail of the fetch family: prefetch every
// referenced dependency, then dispatch the receipt with its lifecycle
// marker. No partial state is committed on failure.
func (m *Manager) receiveList(ctx context.Context, op string,
	action store.ActionType, channelId string, list *model.PostList,
	err error) (*model.PostList, error) {
	if err != nil {
		m.logError(op, err)
		m.failedFetchMarker(err)
		return nil, err
	}

	if err = m.Prefetch(ctx, list.Posts); err != nil {
		m.logError(op, err)
		m.failedFetchMarker(err)
		return nil, err
	}

	m.st.DispatchAll(
		store.Action{Type: action, ChannelId: channelId, Posts: list},
		store.Action{
			Type:   store.RequestStatusChanged,
			Family: store.FamilyGetPosts,
			Status: store.RequestSucceeded,
		})
	return list, nil
}

func (m *Manager) failedFetchMarker(err error) {
	m.st.Dispatch(store.Action{
		Type:   store.RequestStatusChanged,
		Family: store.FamilyGetPosts,
		Status: store.RequestFailed,
		Err:    err,
	})
}

// GetReactionsForPost fetches the reactions on a post and folds them in.
func (m *Manager) GetReactionsForPost(ctx context.Context,
	postId string) ([]*model.Reaction, error) {
	reactions, err := m.remote.GetReactionsForPost(ctx, postId)
	if err != nil {
		m.logError("GetReactionsForPost", err)
		return nil, err
	}
	actions := make([]store.Action, 0, len(reactions))
	for _, r := range reactions {
		actions = append(actions, store.Action{
			Type: store.ReceivedReaction, Reaction: r})
	}
	m.st.DispatchAll(actions...)
	return reactions, nil
}

// GetOpenGraphMetadata scrapes link-preview metadata for a URL and caches
// it.
func (m *Manager) GetOpenGraphMetadata(ctx context.Context, url string) (
	*model.OpenGraph, error) {
	og, err := m.remote.GetOpenGraphMetadata(ctx, url)
	if err != nil {
		m.logError("GetOpenGraphMetadata", err)
		return nil, err
	}
	m.st.Dispatch(store.Action{
		Type:         store.ReceivedOpenGraphMetadata,
		OpenGraphURL: url,
		OpenGraph:    og,
	})
	return og, nil
}

// DoPostActionWithCookie executes an interactive message action. A
// returned trigger id is stored for the dialog layer.
func (m *Manager) DoPostActionWithCookie(ctx context.Context, postId,
	actionId, cookie, option string) (string, error) {
	triggerId, err := m.remote.DoPostActionWithCookie(
		ctx, postId, actionId, cookie, option)
	if err != nil {
		m.logError("DoPostActionWithCookie", err)
		return "", err
	}
	if triggerId != "" {
		m.st.Dispatch(store.Action{
			Type:      store.ReceivedDialogTriggerId,
			TriggerId: triggerId,
		})
	}
	return triggerId, nil
}
