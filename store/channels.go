////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package store

import "github.com/avegrv/mattermost-redux/model"

// channelsState carries channel records, the current user's memberships and
// which channel currently has focus.
type channelsState struct {
	byId             map[string]*model.Channel
	myMembers        map[string]*model.ChannelMember
	currentChannelId string
}

func newChannelsState() channelsState {
	return channelsState{
		byId:      make(map[string]*model.Channel),
		myMembers: make(map[string]*model.ChannelMember),
	}
}

func (s *Store) reduceChannelPostCreated(channelId string) {
	// A confirmed own post counts as already read: the total goes up and
	// the member's read counter keeps pace, so the unread delta shrinks
	// rather than grows.
	if ch, ok := s.channels.byId[channelId]; ok {
		ch.TotalMsgCount++
	}
	if m, ok := s.channels.myMembers[channelId]; ok {
		m.MsgCount++
	}
}

func (s *Store) reduceChannelMarkedRead(channelId string) {
	m, ok := s.channels.myMembers[channelId]
	if !ok {
		return
	}
	if ch, ok := s.channels.byId[channelId]; ok {
		m.MsgCount = ch.TotalMsgCount
	}
	m.MentionCount = 0
	m.LastViewedAt = model.GetMillis()
}

func (s *Store) reduceChannelMarkedUnread(channelId string,
	mentionedIds []string) {
	if ch, ok := s.channels.byId[channelId]; ok {
		ch.TotalMsgCount++
	}
	m, ok := s.channels.myMembers[channelId]
	if !ok {
		return
	}
	for _, id := range mentionedIds {
		if id == s.cfg.CurrentUserId {
			m.MentionCount++
			break
		}
	}
}

// SetCurrentChannel records which channel has focus. The real-time applier
// marks posts in the focused channel read immediately.
func (s *Store) SetCurrentChannel(channelId string) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.channels.currentChannelId = channelId
}

// CurrentChannelId returns the focused channel id.
func (s *Store) CurrentChannelId() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.channels.currentChannelId
}

// Channel returns the cached channel record, or nil.
func (s *Store) Channel(channelId string) *model.Channel {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if ch, ok := s.channels.byId[channelId]; ok {
		cp := *ch
		return &cp
	}
	return nil
}

// MyChannelMember returns the current user's membership record for the
// channel, or nil when none is cached. The record may exist but be empty;
// see model.ChannelMember.IsEmpty.
func (s *Store) MyChannelMember(channelId string) *model.ChannelMember {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if m, ok := s.channels.myMembers[channelId]; ok {
		cp := *m
		return &cp
	}
	return nil
}

// UnreadCount returns the unread message count of a channel for the
// current user.
func (s *Store) UnreadCount(channelId string) int64 {
	s.mux.RLock()
	defer s.mux.RUnlock()
	ch, okCh := s.channels.byId[channelId]
	m, okM := s.channels.myMembers[channelId]
	if !okCh || !okM {
		return 0
	}
	if ch.TotalMsgCount < m.MsgCount {
		return 0
	}
	return ch.TotalMsgCount - m.MsgCount
}

// MentionCount returns the unread mention count of a channel.
func (s *Store) MentionCount(channelId string) int64 {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if m, ok := s.channels.myMembers[channelId]; ok {
		return m.MentionCount
	}
	return 0
}

// typingState tracks active typing indicators keyed by (channel, thread).
type typingState struct {
	byContext map[string]map[string]struct{}
}

func newTypingState() typingState {
	return typingState{byContext: make(map[string]map[string]struct{})}
}

func typingContext(channelId, rootId string) string {
	return channelId + ":" + rootId
}

func (t *typingState) start(channelId, rootId, userId string) {
	key := typingContext(channelId, rootId)
	users, ok := t.byContext[key]
	if !ok {
		users = make(map[string]struct{})
		t.byContext[key] = users
	}
	users[userId] = struct{}{}
}

func (t *typingState) stop(channelId, rootId, userId string) {
	if users, ok := t.byContext[typingContext(channelId, rootId)]; ok {
		delete(users, userId)
	}
}

// TypingUsers returns the users currently typing in (channel, thread).
func (s *Store) TypingUsers(channelId, rootId string) []string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	users := s.typing.byContext[typingContext(channelId, rootId)]
	out := make([]string, 0, len(users))
	for id := range users {
		out = append(out, id)
	}
	return out
}
