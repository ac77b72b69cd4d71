////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package store

import (
	"sort"

	"github.com/avegrv/mattermost-redux/model"
)

// postsState is the normalized post cache: records by id, newest-first id
// lists per channel, the set of outstanding pending ids, and reaction
// triples per post.
type postsState struct {
	byId           map[string]*model.Post
	orderByChannel map[string][]string
	pendingIds     map[string]struct{}
	reactions      map[string]map[string]*model.Reaction
	filesByPost    map[string][]*model.FileInfo
	openGraph      map[string]*model.OpenGraph
	triggerId      string
}

func newPostsState() postsState {
	return postsState{
		byId:           make(map[string]*model.Post),
		orderByChannel: make(map[string][]string),
		pendingIds:     make(map[string]struct{}),
		reactions:      make(map[string]map[string]*model.Reaction),
		filesByPost:    make(map[string][]*model.FileInfo),
		openGraph:      make(map[string]*model.OpenGraph),
	}
}

// swapPendingId promotes an optimistic record to its confirmed id. The old
// record is deleted and the channel order rewritten in the same reduction,
// so no reader ever sees two records for one logical post.
func (s *Store) swapPendingId(post *model.Post) {
	pendingId := post.PendingPostId
	if pendingId == "" || pendingId == post.Id {
		return
	}
	if _, ok := s.posts.byId[pendingId]; !ok {
		delete(s.posts.pendingIds, pendingId)
		return
	}

	delete(s.posts.byId, pendingId)
	delete(s.posts.pendingIds, pendingId)
	order := s.posts.orderByChannel[post.ChannelId]
	for i := range order {
		if order[i] == pendingId {
			order[i] = post.Id
			break
		}
	}
}

func (s *Store) reduceReceivedPost(post *model.Post) {
	s.swapPendingId(post)
	s.posts.byId[post.Id] = post.Clone()
}

func (s *Store) reduceReceivedNewPost(post *model.Post) {
	s.swapPendingId(post)

	if post.Id == post.PendingPostId {
		s.posts.pendingIds[post.Id] = struct{}{}
	}
	s.posts.byId[post.Id] = post.Clone()

	order := s.posts.orderByChannel[post.ChannelId]
	for i := range order {
		if order[i] == post.Id {
			return
		}
	}
	s.posts.orderByChannel[post.ChannelId] =
		append([]string{post.Id}, order...)
	s.sortChannelOrder(post.ChannelId)
}

func (s *Store) reduceReceivedPosts(channelId string, list *model.PostList) {
	for _, post := range list.Posts {
		s.swapPendingId(post)
		s.posts.byId[post.Id] = post.Clone()
		if post.Metadata != nil {
			for _, r := range post.Metadata.Reactions {
				s.addReaction(r)
			}
		}
	}
	if channelId == "" {
		return
	}

	order := s.posts.orderByChannel[channelId]
	known := make(map[string]struct{}, len(order))
	for _, id := range order {
		known[id] = struct{}{}
	}
	for _, id := range list.Order {
		if _, ok := known[id]; !ok {
			order = append(order, id)
		}
	}
	s.posts.orderByChannel[channelId] = order
	s.sortChannelOrder(channelId)
}

// sortChannelOrder restores the newest-first invariant after a merge.
func (s *Store) sortChannelOrder(channelId string) {
	order := s.posts.orderByChannel[channelId]
	sort.SliceStable(order, func(i, j int) bool {
		a, b := s.posts.byId[order[i]], s.posts.byId[order[j]]
		if a == nil || b == nil {
			return a != nil
		}
		return a.CreateAt > b.CreateAt
	})
}

func (s *Store) reducePostDeleted(post *model.Post) {
	rec, ok := s.posts.byId[post.Id]
	if !ok {
		return
	}
	// Leave a placeholder record; only a removal erases it.
	rec.DeleteAt = model.GetMillis()
	rec.UpdateAt = rec.DeleteAt
	rec.Message = ""
	rec.FileIds = nil
	delete(s.posts.reactions, post.Id)
}

func (s *Store) reducePostRemoved(post *model.Post) {
	delete(s.posts.byId, post.Id)
	delete(s.posts.pendingIds, post.Id)
	delete(s.posts.reactions, post.Id)
	delete(s.posts.filesByPost, post.Id)

	order := s.posts.orderByChannel[post.ChannelId]
	for i := range order {
		if order[i] == post.Id {
			s.posts.orderByChannel[post.ChannelId] =
				append(order[:i], order[i+1:]...)
			break
		}
	}
}

func (s *Store) reduceReceivedFiles(postId string,
	files []*model.FileInfo) {
	out := make([]*model.FileInfo, 0, len(files))
	for _, f := range files {
		cp := *f
		cp.PostId = postId
		out = append(out, &cp)
	}
	s.posts.filesByPost[postId] = out
}

func reactionKey(r *model.Reaction) string {
	return r.UserId + "/" + r.EmojiName
}

func (s *Store) addReaction(r *model.Reaction) {
	byKey, ok := s.posts.reactions[r.PostId]
	if !ok {
		byKey = make(map[string]*model.Reaction)
		s.posts.reactions[r.PostId] = byKey
	}
	cp := *r
	byKey[reactionKey(r)] = &cp
}

func (s *Store) reduceReceivedReaction(r *model.Reaction) {
	s.addReaction(r)
}

func (s *Store) reduceReactionDeleted(r *model.Reaction) {
	// Removing an absent reaction is a no-op; the server is authoritative.
	if byKey, ok := s.posts.reactions[r.PostId]; ok {
		delete(byKey, reactionKey(r))
	}
}

// Post returns the cached post with the given id, or nil.
func (s *Store) Post(id string) *model.Post {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if post, ok := s.posts.byId[id]; ok {
		return post.Clone()
	}
	return nil
}

// IsPendingSend reports whether the pending id has an optimistic record
// that is not yet confirmed.
func (s *Store) IsPendingSend(pendingId string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.posts.pendingIds[pendingId]
	return ok
}

// OrderInChannel returns the newest-first id list of a channel.
func (s *Store) OrderInChannel(channelId string) []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return append([]string(nil), s.posts.orderByChannel[channelId]...)
}

// PostsInChannel returns the channel's posts in display order.
func (s *Store) PostsInChannel(channelId string) []*model.Post {
	s.mux.RLock()
	defer s.mux.RUnlock()
	order := s.posts.orderByChannel[channelId]
	out := make([]*model.Post, 0, len(order))
	for _, id := range order {
		if post, ok := s.posts.byId[id]; ok {
			out = append(out, post.Clone())
		}
	}
	return out
}

// ReactionsForPost returns the reactions recorded for a post, in no
// particular order.
func (s *Store) ReactionsForPost(postId string) []*model.Reaction {
	s.mux.RLock()
	defer s.mux.RUnlock()
	byKey := s.posts.reactions[postId]
	out := make([]*model.Reaction, 0, len(byKey))
	for _, r := range byKey {
		cp := *r
		out = append(out, &cp)
	}
	return out
}

// FilesForPost returns the file records associated with a post id.
func (s *Store) FilesForPost(postId string) []*model.FileInfo {
	s.mux.RLock()
	defer s.mux.RUnlock()
	files := s.posts.filesByPost[postId]
	out := make([]*model.FileInfo, 0, len(files))
	for _, f := range files {
		cp := *f
		out = append(out, &cp)
	}
	return out
}

// OpenGraphFor returns cached link-preview metadata for a URL, or nil.
func (s *Store) OpenGraphFor(url string) *model.OpenGraph {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.posts.openGraph[url]
}

// DialogTriggerId returns the most recent interactive-dialog trigger id.
func (s *Store) DialogTriggerId() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.posts.triggerId
}
