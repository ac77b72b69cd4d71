////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"
	"sync"
	"testing"
	"time"

	"gitlab.com/elixxir/ekv"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

const testUserId = "me"

// testClock is the frozen send moment used by every test manager.
var testClock = time.UnixMilli(1662514200000)

// mockRemote is a scripted client.Remote that records every call. Methods
// with no scripted result return empty values.
type mockRemote struct {
	mux sync.Mutex

	// createGate, when set, blocks CreatePost until closed, so tests can
	// observe the optimistic state before the confirmation lands.
	createGate chan struct{}

	createCalls []*model.Post
	createErr   error

	patchErr error

	deleteCalls []string
	deleteErr   error

	pinCalls   []string
	unpinCalls []string
	pinErr     error

	addedReactions   []*model.Reaction
	removedReactions []*model.Reaction
	reactionErr      error

	postsBefore *model.PostList
	postsAfter  *model.PostList
	thread      *model.PostList
	postList    *model.PostList
	listErr     error

	profiles         []*model.User
	profileIdCalls   [][]string
	usernameCalls    [][]string
	statuses         []*model.Status
	statusCalls      [][]string
	emojis           []*model.Emoji
	emojiCalls       [][]string
	member           *model.ChannelMember
	memberCalls      []string
	viewChannelCalls []string
	viewChannelErr   error
}

func (r *mockRemote) GetPost(_ context.Context, postId string) (
	*model.Post, error) {
	return &model.Post{Id: postId}, nil
}

func (r *mockRemote) CreatePost(_ context.Context, post *model.Post) (
	*model.Post, error) {
	if r.createGate != nil {
		<-r.createGate
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	r.createCalls = append(r.createCalls, post.Clone())
	if r.createErr != nil {
		return nil, r.createErr
	}

	confirmed := post.Clone()
	confirmed.Id = "srv1"
	confirmed.CreateAt = testClock.UnixMilli() + 50
	confirmed.UpdateAt = confirmed.CreateAt
	return confirmed, nil
}

func (r *mockRemote) PatchPost(_ context.Context, post *model.Post) (
	*model.Post, error) {
	if r.patchErr != nil {
		return nil, r.patchErr
	}
	patched := post.Clone()
	patched.UpdateAt = testClock.UnixMilli() + 100
	return patched, nil
}

func (r *mockRemote) DeletePost(_ context.Context, postId string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleteCalls = append(r.deleteCalls, postId)
	return nil
}

func (r *mockRemote) PinPost(_ context.Context, postId string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.pinCalls = append(r.pinCalls, postId)
	return r.pinErr
}

func (r *mockRemote) UnpinPost(_ context.Context, postId string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.unpinCalls = append(r.unpinCalls, postId)
	return r.pinErr
}

func (r *mockRemote) AddReaction(_ context.Context,
	reaction *model.Reaction) (*model.Reaction, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.reactionErr != nil {
		return nil, r.reactionErr
	}
	confirmed := *reaction
	confirmed.CreateAt = testClock.UnixMilli()
	r.addedReactions = append(r.addedReactions, &confirmed)
	return &confirmed, nil
}

func (r *mockRemote) RemoveReaction(_ context.Context,
	reaction *model.Reaction) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.reactionErr != nil {
		return r.reactionErr
	}
	r.removedReactions = append(r.removedReactions, reaction)
	return nil
}

func (r *mockRemote) GetReactionsForPost(_ context.Context, postId string) (
	[]*model.Reaction, error) {
	return nil, nil
}

func (r *mockRemote) listResult() (*model.PostList, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	if r.postList != nil {
		return r.postList, nil
	}
	return model.NewPostList(), nil
}

func (r *mockRemote) GetPosts(_ context.Context, channelId string,
	page, perPage int) (*model.PostList, error) {
	return r.listResult()
}

func (r *mockRemote) GetPostsSince(_ context.Context, channelId string,
	since int64) (*model.PostList, error) {
	return r.listResult()
}

func (r *mockRemote) GetPostsBefore(_ context.Context, channelId,
	postId string, page, perPage int) (*model.PostList, error) {
	if r.postsBefore != nil {
		return r.postsBefore, nil
	}
	return r.listResult()
}

func (r *mockRemote) GetPostsAfter(_ context.Context, channelId,
	postId string, page, perPage int) (*model.PostList, error) {
	if r.postsAfter != nil {
		return r.postsAfter, nil
	}
	return r.listResult()
}

func (r *mockRemote) GetPostThread(_ context.Context, postId string) (
	*model.PostList, error) {
	if r.thread != nil {
		return r.thread, nil
	}
	return r.listResult()
}

func (r *mockRemote) GetPostsUnread(_ context.Context, channelId,
	userId string, limitBefore, limitAfter int) (*model.PostList, error) {
	return r.listResult()
}

func (r *mockRemote) GetOpenGraphMetadata(_ context.Context, url string) (
	*model.OpenGraph, error) {
	return &model.OpenGraph{URL: url, Title: "preview"}, nil
}

func (r *mockRemote) DoPostActionWithCookie(_ context.Context, postId,
	actionId, cookie, option string) (string, error) {
	return "trigger1", nil
}

func (r *mockRemote) GetProfilesByIds(_ context.Context,
	userIds []string) ([]*model.User, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.profileIdCalls = append(r.profileIdCalls, userIds)
	return r.profiles, nil
}

func (r *mockRemote) GetProfilesByUsernames(_ context.Context,
	usernames []string) ([]*model.User, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.usernameCalls = append(r.usernameCalls, usernames)
	return r.profiles, nil
}

func (r *mockRemote) GetStatusesByIds(_ context.Context,
	userIds []string) ([]*model.Status, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.statusCalls = append(r.statusCalls, userIds)
	return r.statuses, nil
}

func (r *mockRemote) GetCustomEmojisByName(_ context.Context,
	names []string) ([]*model.Emoji, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.emojiCalls = append(r.emojiCalls, names)
	return r.emojis, nil
}

func (r *mockRemote) GetChannelMember(_ context.Context, channelId,
	userId string) (*model.ChannelMember, error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.memberCalls = append(r.memberCalls, channelId)
	if r.member != nil {
		return r.member, nil
	}
	return &model.ChannelMember{
		ChannelId: channelId, UserId: userId, Roles: "channel_user",
		LastViewedAt: 1,
	}, nil
}

func (r *mockRemote) ViewChannel(_ context.Context, userId,
	channelId string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.viewChannelCalls = append(r.viewChannelCalls, channelId)
	return r.viewChannelErr
}

func (r *mockRemote) createCallCount() int {
	r.mux.Lock()
	defer r.mux.Unlock()
	return len(r.createCalls)
}

// newTestManager builds a manager over a fresh store, an in-memory journal
// and a frozen clock.
func newTestManager(t *testing.T, remote *mockRemote) (
	*Manager, *store.Store) {
	t.Helper()

	st := store.New(store.Config{
		CurrentUserId:     testUserId,
		EnableCustomEmoji: true,
	})
	m, err := NewManager(st, remote, ekv.MakeMemstore(), DefaultParams())
	if err != nil {
		t.Fatalf("Failed to build the manager: %+v", err)
	}
	m.now = func() time.Time { return testClock }
	return m, st
}

// seedChannel caches a channel and the current user's membership.
func seedChannel(st *store.Store, channelId string, total, read int64) {
	st.DispatchAll(
		store.Action{Type: store.ReceivedChannel, Channel: &model.Channel{
			Id: channelId, TotalMsgCount: total}},
		store.Action{Type: store.ReceivedChannelMember,
			Member: &model.ChannelMember{
				ChannelId: channelId, UserId: testUserId,
				Roles: "channel_user", MsgCount: read, LastViewedAt: 1,
			}},
	)
}
