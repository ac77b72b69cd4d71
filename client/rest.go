////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"go.uber.org/ratelimit"

	"github.com/avegrv/mattermost-redux/model"
)

const (
	apiPrefix = "/api/v4"

	headerAuth      = "Authorization"
	headerRequestId = "X-Request-ID"

	// defaultRequestsPerSecond paces outbound calls so a burst of prefetch
	// fan-outs cannot trip server-side limits.
	defaultRequestsPerSecond = 45
)

// Rest implements Remote over the server's JSON REST API.
type Rest struct {
	baseURL string
	token   string
	httpc   *http.Client
	rl      ratelimit.Limiter
}

// NewRest creates a REST remote against the given server URL using the
// given session token.
func NewRest(serverURL, token string) *Rest {
	return &Rest{
		baseURL: strings.TrimSuffix(serverURL, "/") + apiPrefix,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		rl:      ratelimit.New(defaultRequestsPerSecond),
	}
}

// do issues one API request. A nil out skips body decoding. Server-side
// failures are returned as *model.AppError; transport failures are wrapped
// as-is.
func (c *Rest) do(ctx context.Context, method, path string, in,
	out interface{}) error {
	c.rl.Take()

	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return errors.Wrapf(err, "failed to encode %s %s body",
				method, path)
		}
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrapf(err, "failed to build %s %s", method, path)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestId, uuid.NewString())
	if c.token != "" {
		req.Header.Set(headerAuth, "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s failed", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		appErr := errorFromResponse(resp)
		jww.WARN.Printf("[API] %s %s returned %d (%s)",
			method, path, resp.StatusCode, appErr.Reason)
		return appErr
	}

	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response",
			method, path)
	}
	return nil
}

// GetPost fetches a single post by id.
func (c *Rest) GetPost(ctx context.Context, postId string) (
	*model.Post, error) {
	var post model.Post
	err := c.do(ctx, http.MethodGet, "/posts/"+postId, nil, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost submits a draft post.
func (c *Rest) CreatePost(ctx context.Context, post *model.Post) (
	*model.Post, error) {
	var created model.Post
	err := c.do(ctx, http.MethodPost, "/posts", post, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// PatchPost submits edited post content.
func (c *Rest) PatchPost(ctx context.Context, post *model.Post) (
	*model.Post, error) {
	var patched model.Post
	err := c.do(ctx, http.MethodPut,
		"/posts/"+post.Id+"/patch", post, &patched)
	if err != nil {
		return nil, err
	}
	return &patched, nil
}

// DeletePost deletes the post server-side.
func (c *Rest) DeletePost(ctx context.Context, postId string) error {
	return c.do(ctx, http.MethodDelete, "/posts/"+postId, nil, nil)
}

// PinPost marks the post pinned to its channel.
func (c *Rest) PinPost(ctx context.Context, postId string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+postId+"/pin", nil, nil)
}

// UnpinPost removes the pinned mark.
func (c *Rest) UnpinPost(ctx context.Context, postId string) error {
	return c.do(ctx, http.MethodPost, "/posts/"+postId+"/unpin", nil, nil)
}

// AddReaction records an emoji reaction.
func (c *Rest) AddReaction(ctx context.Context,
	reaction *model.Reaction) (*model.Reaction, error) {
	var created model.Reaction
	err := c.do(ctx, http.MethodPost, "/reactions", reaction, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveReaction deletes an emoji reaction.
func (c *Rest) RemoveReaction(ctx context.Context,
	reaction *model.Reaction) error {
	path := fmt.Sprintf("/users/%s/posts/%s/reactions/%s",
		reaction.UserId, reaction.PostId, reaction.EmojiName)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetReactionsForPost lists all reactions on a post.
func (c *Rest) GetReactionsForPost(ctx context.Context, postId string) (
	[]*model.Reaction, error) {
	var reactions []*model.Reaction
	err := c.do(ctx, http.MethodGet,
		"/posts/"+postId+"/reactions", nil, &reactions)
	if err != nil {
		return nil, err
	}
	return reactions, nil
}

// GetPosts fetches one page of a channel, newest first.
func (c *Rest) GetPosts(ctx context.Context, channelId string,
	page, perPage int) (*model.PostList, error) {
	path := fmt.Sprintf("/channels/%s/posts?page=%d&per_page=%d",
		channelId, page, perPage)
	return c.getPostList(ctx, path)
}

// GetPostsSince fetches every post changed after the timestamp.
func (c *Rest) GetPostsSince(ctx context.Context, channelId string,
	since int64) (*model.PostList, error) {
	path := fmt.Sprintf("/channels/%s/posts?since=%s",
		channelId, strconv.FormatInt(since, 10))
	return c.getPostList(ctx, path)
}

// GetPostsBefore fetches the page of posts older than postId.
func (c *Rest) GetPostsBefore(ctx context.Context, channelId,
	postId string, page, perPage int) (*model.PostList, error) {
	path := fmt.Sprintf("/channels/%s/posts?before=%s&page=%d&per_page=%d",
		channelId, postId, page, perPage)
	return c.getPostList(ctx, path)
}

// GetPostsAfter fetches the page of posts newer than postId.
func (c *Rest) GetPostsAfter(ctx context.Context, channelId,
	postId string, page, perPage int) (*model.PostList, error) {
	path := fmt.Sprintf("/channels/%s/posts?after=%s&page=%d&per_page=%d",
		channelId, postId, page, perPage)
	return c.getPostList(ctx, path)
}

// GetPostThread fetches the full thread containing postId.
func (c *Rest) GetPostThread(ctx context.Context, postId string) (
	*model.PostList, error) {
	return c.getPostList(ctx, "/posts/"+postId+"/thread")
}

// GetPostsUnread fetches the unread window of a channel for a user.
func (c *Rest) GetPostsUnread(ctx context.Context, channelId,
	userId string, limitBefore, limitAfter int) (*model.PostList, error) {
	path := fmt.Sprintf(
		"/users/%s/channels/%s/posts/unread?limit_before=%d&limit_after=%d",
		userId, channelId, limitBefore, limitAfter)
	return c.getPostList(ctx, path)
}

func (c *Rest) getPostList(ctx context.Context, path string) (
	*model.PostList, error) {
	list := model.NewPostList()
	if err := c.do(ctx, http.MethodGet, path, nil, list); err != nil {
		return nil, err
	}
	if err := list.Validate(); err != nil {
		return nil, errors.WithMessagef(err,
			"server returned inconsistent post list for %s", path)
	}
	return list, nil
}

// GetOpenGraphMetadata scrapes link-preview metadata for a URL.
func (c *Rest) GetOpenGraphMetadata(ctx context.Context, ogURL string) (
	*model.OpenGraph, error) {
	var og model.OpenGraph
	in := map[string]string{"url": ogURL}
	err := c.do(ctx, http.MethodPost, "/opengraph", in, &og)
	if err != nil {
		return nil, err
	}
	return &og, nil
}

// DoPostActionWithCookie executes an interactive message action.
func (c *Rest) DoPostActionWithCookie(ctx context.Context, postId,
	actionId, cookie, option string) (string, error) {
	in := map[string]string{
		"selected_option": option,
		"cookie":          cookie,
	}
	var out struct {
		TriggerId string `json:"trigger_id"`
	}
	path := fmt.Sprintf("/posts/%s/actions/%s", postId, actionId)
	if err := c.do(ctx, http.MethodPost, path, in, &out); err != nil {
		return "", err
	}
	return out.TriggerId, nil
}

// GetProfilesByIds fetches user profiles in bulk.
func (c *Rest) GetProfilesByIds(ctx context.Context, userIds []string) (
	[]*model.User, error) {
	var users []*model.User
	err := c.do(ctx, http.MethodPost, "/users/ids", userIds, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetProfilesByUsernames fetches user profiles by username in bulk.
func (c *Rest) GetProfilesByUsernames(ctx context.Context,
	usernames []string) ([]*model.User, error) {
	var users []*model.User
	err := c.do(ctx, http.MethodPost, "/users/usernames", usernames, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetStatusesByIds fetches presence statuses in bulk.
func (c *Rest) GetStatusesByIds(ctx context.Context, userIds []string) (
	[]*model.Status, error) {
	var statuses []*model.Status
	err := c.do(ctx, http.MethodPost, "/users/status/ids", userIds,
		&statuses)
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// GetCustomEmojisByName fetches custom emoji records by name in bulk.
func (c *Rest) GetCustomEmojisByName(ctx context.Context,
	names []string) ([]*model.Emoji, error) {
	var emojis []*model.Emoji
	err := c.do(ctx, http.MethodPost, "/emoji/names", names, &emojis)
	if err != nil {
		return nil, err
	}
	return emojis, nil
}

// GetChannelMember fetches the membership record of a user in a channel.
func (c *Rest) GetChannelMember(ctx context.Context, channelId,
	userId string) (*model.ChannelMember, error) {
	var member model.ChannelMember
	path := fmt.Sprintf("/channels/%s/members/%s", channelId, userId)
	if err := c.do(ctx, http.MethodGet, path, nil, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// ViewChannel reports a channel view, clearing server-side unread state.
func (c *Rest) ViewChannel(ctx context.Context, userId,
	channelId string) error {
	in := map[string]string{"channel_id": channelId}
	path := fmt.Sprintf("/channels/members/%s/view", userId)
	return c.do(ctx, http.MethodPost, path, in, nil)
}

// WebsocketURL derives the websocket endpoint from a server URL.
func WebsocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid server URL")
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + apiPrefix + "/websocket"
	return u.String(), nil
}
