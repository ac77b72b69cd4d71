////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package store implements the normalized client-side state container.
// Every mutation flows through Dispatch, which applies reducers under one
// lock, so mutation order equals dispatch order and callers never observe a
// half-applied action. The store is an explicit handle passed to every
// collaborator; there is no package-level instance.
package store

import (
	"sync"

	jww "github.com/spf13/jwalterweatherman"
)

// Config carries the per-session settings the reducers and the prefetcher
// consult.
type Config struct {
	// CurrentUserId is the id of the signed-in user.
	CurrentUserId string

	// EnableCustomEmoji mirrors the server setting; when false the emoji
	// prefetch scan is skipped globally.
	EnableCustomEmoji bool
}

// Store is the normalized state container. Construct one per session with
// New.
type Store struct {
	mux sync.RWMutex

	cfg Config

	posts    postsState
	channels channelsState
	users    usersState
	emoji    emojiState
	typing   typingState
	requests map[string]RequestStatus

	// Set by SignOut. A torn-down store accepts dispatches as no-ops so
	// that in-flight operations finishing after a forced sign-out are
	// harmless.
	tornDown bool
}

// New assembles the sub-stores and returns the container. This is the one
// place state is created; callers thread the handle everywhere.
func New(cfg Config) *Store {
	s := &Store{cfg: cfg}
	s.posts = newPostsState()
	s.channels = newChannelsState()
	s.users = newUsersState(cfg.CurrentUserId)
	s.emoji = newEmojiState()
	s.typing = newTypingState()
	s.requests = make(map[string]RequestStatus)
	return s
}

// Config returns the session settings.
func (s *Store) Config() Config {
	return s.cfg
}

// CurrentUserId returns the signed-in user's id.
func (s *Store) CurrentUserId() string {
	return s.cfg.CurrentUserId
}

// Dispatch applies one action. Application is synchronous and serialized;
// when Dispatch returns the mutation is visible to every reader.
func (s *Store) Dispatch(a Action) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.apply(a)
}

// DispatchAll applies a sequence of actions under one serialized section,
// so no reader interleaves between them. Used where a receipt and its
// bookkeeping must land together.
func (s *Store) DispatchAll(actions ...Action) {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, a := range actions {
		s.apply(a)
	}
}

func (s *Store) apply(a Action) {
	if s.tornDown {
		jww.DEBUG.Printf(
			"[STORE] Dropped %s dispatched after sign-out", a.Type)
		return
	}

	switch a.Type {
	case ReceivedPost:
		s.reduceReceivedPost(a.Post)
	case ReceivedNewPost:
		s.reduceReceivedNewPost(a.Post)
	case ReceivedPosts, ReceivedPostsInChannel, ReceivedPostsBefore,
		ReceivedPostsAfter, ReceivedPostsSince, ReceivedPostsInThread:
		s.reduceReceivedPosts(a.ChannelId, a.Posts)
	case PostDeleted:
		s.reducePostDeleted(a.Post)
	case PostRemoved:
		s.reducePostRemoved(a.Post)
	case ReceivedFilesForPost:
		s.reduceReceivedFiles(a.PostId, a.Files)
	case ReceivedReaction:
		s.reduceReceivedReaction(a.Reaction)
	case ReactionDeleted:
		s.reduceReactionDeleted(a.Reaction)
	case ReceivedOpenGraphMetadata:
		s.posts.openGraph[a.OpenGraphURL] = a.OpenGraph
	case ReceivedDialogTriggerId:
		s.posts.triggerId = a.TriggerId
	case ChannelPostCreated:
		s.reduceChannelPostCreated(a.ChannelId)
	case ChannelMarkedRead:
		s.reduceChannelMarkedRead(a.ChannelId)
	case ChannelMarkedUnread:
		s.reduceChannelMarkedUnread(a.ChannelId, a.MentionedIds)
	case ReceivedChannel:
		s.channels.byId[a.Channel.Id] = a.Channel
	case ReceivedChannelMember:
		s.channels.myMembers[a.Member.ChannelId] = a.Member
	case UserTyping:
		s.typing.start(a.ChannelId, a.RootId, a.UserId)
	case StopTyping:
		s.typing.stop(a.ChannelId, a.RootId, a.UserId)
	case ReceivedProfiles:
		s.reduceReceivedProfiles(a.Users)
	case ReceivedStatuses:
		s.reduceReceivedStatuses(a.Statuses)
	case ReceivedCustomEmojis:
		for _, e := range a.Emojis {
			s.emoji.customByName[e.Name] = e
		}
	case CustomEmojisMissing:
		for _, name := range a.EmojiNames {
			s.emoji.nonExistent[name] = struct{}{}
		}
	case RequestStatusChanged:
		s.requests[a.Family] = a.Status
	default:
		jww.WARN.Printf("[STORE] Unknown action type %s dropped", a.Type)
	}
}

// RequestStatusOf returns the lifecycle marker of an operation family.
func (s *Store) RequestStatusOf(family string) RequestStatus {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.requests[family]
}

// SignOut tears the session state down. Later dispatches become no-ops;
// concurrent operations finishing after the teardown are tolerated.
func (s *Store) SignOut() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.tornDown {
		return
	}
	jww.INFO.Printf("[STORE] Session torn down, state cleared")
	s.tornDown = true
	s.posts = newPostsState()
	s.channels = newChannelsState()
	s.users = newUsersState("")
	s.emoji = newEmojiState()
	s.typing = newTypingState()
	s.requests = make(map[string]RequestStatus)
}

// SignedOut reports whether the store has been torn down.
func (s *Store) SignedOut() bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.tornDown
}
