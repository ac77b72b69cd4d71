////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package client carries the remote boundary of the state layer: the
// interface the synchronization engine calls, a REST implementation of it,
// and the websocket event source. Server error ids are mapped to the closed
// model.RejectionReason enum here and nowhere else.
package client

import (
	"context"

	"github.com/avegrv/mattermost-redux/model"
)

// Remote is the network boundary consumed by the synchronization engine.
// Every call either returns the parsed entity or an error; errors from the
// server side are always *model.AppError.
type Remote interface {
	// GetPost fetches a single post by id.
	GetPost(ctx context.Context, postId string) (*model.Post, error)

	// CreatePost submits a draft post. The returned post carries the
	// server-assigned id and timestamps.
	CreatePost(ctx context.Context, post *model.Post) (*model.Post, error)

	// PatchPost submits edited post content and returns the updated post.
	PatchPost(ctx context.Context, post *model.Post) (*model.Post, error)

	// DeletePost deletes the post server-side.
	DeletePost(ctx context.Context, postId string) error

	// PinPost marks the post pinned to its channel.
	PinPost(ctx context.Context, postId string) error

	// UnpinPost removes the pinned mark.
	UnpinPost(ctx context.Context, postId string) error

	// AddReaction records an emoji reaction. Duplicate adds are harmless.
	AddReaction(ctx context.Context, reaction *model.Reaction) (
		*model.Reaction, error)

	// RemoveReaction deletes an emoji reaction. Removing a reaction that
	// does not exist is harmless.
	RemoveReaction(ctx context.Context, reaction *model.Reaction) error

	// GetReactionsForPost lists all reactions on a post.
	GetReactionsForPost(ctx context.Context, postId string) (
		[]*model.Reaction, error)

	// GetPosts fetches one page of a channel, newest first.
	GetPosts(ctx context.Context, channelId string, page, perPage int) (
		*model.PostList, error)

	// GetPostsSince fetches every post in a channel changed after the
	// given epoch-millisecond timestamp.
	GetPostsSince(ctx context.Context, channelId string, since int64) (
		*model.PostList, error)

	// GetPostsBefore fetches the page of posts older than postId.
	GetPostsBefore(ctx context.Context, channelId, postId string,
		page, perPage int) (*model.PostList, error)

	// GetPostsAfter fetches the page of posts newer than postId.
	GetPostsAfter(ctx context.Context, channelId, postId string,
		page, perPage int) (*model.PostList, error)

	// GetPostThread fetches the full thread containing postId.
	GetPostThread(ctx context.Context, postId string) (*model.PostList, error)

	// GetPostsUnread fetches the unread window of a channel for a user.
	GetPostsUnread(ctx context.Context, channelId, userId string,
		limitBefore, limitAfter int) (*model.PostList, error)

	// GetOpenGraphMetadata scrapes link-preview metadata for a URL.
	GetOpenGraphMetadata(ctx context.Context, url string) (
		*model.OpenGraph, error)

	// DoPostActionWithCookie executes an interactive message action and
	// returns the dialog trigger id, if the action opens one.
	DoPostActionWithCookie(ctx context.Context, postId, actionId, cookie,
		option string) (string, error)

	// GetProfilesByIds fetches user profiles in bulk.
	GetProfilesByIds(ctx context.Context, userIds []string) (
		[]*model.User, error)

	// GetProfilesByUsernames fetches user profiles by username in bulk.
	GetProfilesByUsernames(ctx context.Context, usernames []string) (
		[]*model.User, error)

	// GetStatusesByIds fetches presence statuses in bulk.
	GetStatusesByIds(ctx context.Context, userIds []string) (
		[]*model.Status, error)

	// GetCustomEmojisByName fetches custom emoji records by name in bulk.
	// Names with no record are absent from the result, not an error.
	GetCustomEmojisByName(ctx context.Context, names []string) (
		[]*model.Emoji, error)

	// GetChannelMember fetches the membership record of a user in a
	// channel.
	GetChannelMember(ctx context.Context, channelId, userId string) (
		*model.ChannelMember, error)

	// ViewChannel reports to the server that the user viewed the channel,
	// clearing server-side unread state.
	ViewChannel(ctx context.Context, userId, channelId string) error
}
