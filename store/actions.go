////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package store

import (
	"strconv"

	"github.com/avegrv/mattermost-redux/model"
)

// ActionType names one mutation of the normalized state. The vocabulary is
// the outward contract of the synchronization layer; reducers switch on it.
type ActionType string

const (
	// ReceivedPost merges one confirmed or refreshed post. If the post's
	// pending id still resolves to an optimistic record, the record is
	// replaced atomically under the new id.
	ReceivedPost ActionType = "RECEIVED_POST"

	// ReceivedNewPost inserts a freshly created or freshly arrived post at
	// the newest end of its channel.
	ReceivedNewPost ActionType = "RECEIVED_NEW_POST"

	// ReceivedPosts merges a fetched batch with positional metadata.
	ReceivedPosts ActionType = "RECEIVED_POSTS"

	// ReceivedPostsInChannel merges a page fetched for a channel.
	ReceivedPostsInChannel ActionType = "RECEIVED_POSTS_IN_CHANNEL"

	// ReceivedPostsBefore merges a page fetched before a pivot post.
	ReceivedPostsBefore ActionType = "RECEIVED_POSTS_BEFORE"

	// ReceivedPostsAfter merges a page fetched after a pivot post.
	ReceivedPostsAfter ActionType = "RECEIVED_POSTS_AFTER"

	// ReceivedPostsSince merges posts changed since a timestamp.
	ReceivedPostsSince ActionType = "RECEIVED_POSTS_SINCE"

	// ReceivedPostsInThread merges a fetched thread.
	ReceivedPostsInThread ActionType = "RECEIVED_POSTS_IN_THREAD"

	// PostDeleted marks a post as deleted in place, leaving a placeholder
	// record.
	PostDeleted ActionType = "POST_DELETED"

	// PostRemoved erases a post record and its reactions entirely.
	PostRemoved ActionType = "POST_REMOVED"

	// ReceivedFilesForPost associates uploaded file records with a post
	// id. Dispatched first against the pending id, then again under the
	// confirmed id once the server acknowledges the post.
	ReceivedFilesForPost ActionType = "RECEIVED_FILES_FOR_POST"

	// ReceivedReaction records one confirmed reaction.
	ReceivedReaction ActionType = "RECEIVED_REACTION"

	// ReactionDeleted removes one reaction triple.
	ReactionDeleted ActionType = "REACTION_DELETED"

	// ReceivedOpenGraphMetadata caches link-preview data for a URL.
	ReceivedOpenGraphMetadata ActionType = "RECEIVED_OPEN_GRAPH_METADATA"

	// ReceivedDialogTriggerId stores the trigger id of an interactive
	// dialog opened by a post action.
	ReceivedDialogTriggerId ActionType = "RECEIVED_DIALOG_TRIGGER_ID"

	// ChannelPostCreated bumps the channel's total-message counter and the
	// member's read counter after a confirmed own-post create.
	ChannelPostCreated ActionType = "CHANNEL_POST_CREATED"

	// ChannelMarkedRead catches the member's counters up to the channel.
	ChannelMarkedRead ActionType = "CHANNEL_MARKED_READ"

	// ChannelMarkedUnread advances the channel's counters past the
	// member's, recording mentions of the current user.
	ChannelMarkedUnread ActionType = "CHANNEL_MARKED_UNREAD"

	// ReceivedChannel caches a channel record.
	ReceivedChannel ActionType = "RECEIVED_CHANNEL"

	// ReceivedChannelMember caches the current user's membership record.
	ReceivedChannelMember ActionType = "RECEIVED_CHANNEL_MEMBER"

	// UserTyping records a typing indicator for (channel, thread, user).
	UserTyping ActionType = "USER_TYPING"

	// StopTyping clears a typing indicator for (channel, thread, user).
	StopTyping ActionType = "STOP_TYPING"

	// ReceivedProfiles caches fetched user profiles.
	ReceivedProfiles ActionType = "RECEIVED_PROFILES"

	// ReceivedStatuses caches fetched presence statuses.
	ReceivedStatuses ActionType = "RECEIVED_STATUSES"

	// ReceivedCustomEmojis caches fetched custom emoji records.
	ReceivedCustomEmojis ActionType = "RECEIVED_CUSTOM_EMOJIS"

	// CustomEmojisMissing records emoji names the server confirmed do not
	// exist, so they are never fetched again.
	CustomEmojisMissing ActionType = "CUSTOM_EMOJIS_MISSING"

	// RequestStatusChanged updates the lifecycle marker of one operation
	// family for UI loading states.
	RequestStatusChanged ActionType = "REQUEST_STATUS_CHANGED"
)

// RequestStatus is the lifecycle marker of an operation family.
type RequestStatus uint8

const (
	// RequestIdle means no request of the family is running.
	RequestIdle RequestStatus = iota

	// RequestStarted means a request is in flight.
	RequestStarted

	// RequestSucceeded means the last request completed.
	RequestSucceeded

	// RequestFailed means the last request failed.
	RequestFailed
)

// String adheres to the fmt.Stringer interface.
func (rs RequestStatus) String() string {
	switch rs {
	case RequestIdle:
		return "idle"
	case RequestStarted:
		return "started"
	case RequestSucceeded:
		return "succeeded"
	case RequestFailed:
		return "failed"
	default:
		return "Invalid RequestStatus: " + strconv.Itoa(int(rs))
	}
}

// Operation families tracked by request-lifecycle markers.
const (
	FamilyCreatePost = "create_post"
	FamilyEditPost   = "edit_post"
	FamilyDeletePost = "delete_post"
	FamilyGetPosts   = "get_posts"
	FamilyReactions  = "reactions"
)

// Action is one dispatched mutation. Only the fields relevant to its Type
// are set; reducers read nothing else.
type Action struct {
	Type ActionType

	Post   *model.Post
	Posts  *model.PostList
	PostId string

	ChannelId string
	RootId    string
	UserId    string

	Reaction *model.Reaction

	Channel *model.Channel
	Member  *model.ChannelMember

	Users    []*model.User
	Statuses []*model.Status

	Emojis     []*model.Emoji
	EmojiNames []string

	Files []*model.FileInfo

	OpenGraphURL string
	OpenGraph    *model.OpenGraph

	TriggerId string

	// MentionedIds lists users mentioned by the post that caused a
	// ChannelMarkedUnread.
	MentionedIds []string

	Family string
	Status RequestStatus
	Err    error
}
