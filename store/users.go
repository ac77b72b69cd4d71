////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package store

import "github.com/avegrv/mattermost-redux/model"

// usersState caches profiles (indexed by id and username) and presence
// statuses.
type usersState struct {
	currentUserId string
	profiles      map[string]*model.User
	byUsername    map[string]string
	statuses      map[string]*model.Status
}

func newUsersState(currentUserId string) usersState {
	return usersState{
		currentUserId: currentUserId,
		profiles:      make(map[string]*model.User),
		byUsername:    make(map[string]string),
		statuses:      make(map[string]*model.Status),
	}
}

func (s *Store) reduceReceivedProfiles(users []*model.User) {
	for _, u := range users {
		cp := *u
		s.users.profiles[u.Id] = &cp
		s.users.byUsername[u.Username] = u.Id
	}
}

func (s *Store) reduceReceivedStatuses(statuses []*model.Status) {
	for _, st := range statuses {
		cp := *st
		s.users.statuses[st.UserId] = &cp
	}
}

// Profile returns the cached profile for a user id, or nil.
func (s *Store) Profile(userId string) *model.User {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if u, ok := s.users.profiles[userId]; ok {
		cp := *u
		return &cp
	}
	return nil
}

// HasProfile reports whether a profile is cached for the user id.
func (s *Store) HasProfile(userId string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.users.profiles[userId]
	return ok
}

// HasProfileWithUsername reports whether a profile with the username is
// cached.
func (s *Store) HasProfileWithUsername(username string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.users.byUsername[username]
	return ok
}

// HasStatus reports whether a presence status is cached for the user id.
func (s *Store) HasStatus(userId string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.users.statuses[userId]
	return ok
}

// StatusOf returns the cached presence status, or nil.
func (s *Store) StatusOf(userId string) *model.Status {
	s.mux.RLock()
	defer s.mux.RUnlock()
	if st, ok := s.users.statuses[userId]; ok {
		cp := *st
		return &cp
	}
	return nil
}

// emojiState caches custom emoji records and the names the server has
// confirmed not to exist.
type emojiState struct {
	customByName map[string]*model.Emoji
	nonExistent  map[string]struct{}
}

func newEmojiState() emojiState {
	return emojiState{
		customByName: make(map[string]*model.Emoji),
		nonExistent:  make(map[string]struct{}),
	}
}

// HasCustomEmoji reports whether a custom emoji with the name is cached.
func (s *Store) HasCustomEmoji(name string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.emoji.customByName[name]
	return ok
}

// EmojiKnownMissing reports whether the server has already confirmed that
// no custom emoji with the name exists.
func (s *Store) EmojiKnownMissing(name string) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	_, ok := s.emoji.nonExistent[name]
	return ok
}
