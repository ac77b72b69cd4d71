////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// ignoredPostTypes are noise subtypes that must not disturb read/unread
// state.
var ignoredPostTypes = map[string]struct{}{
	"system_join_channel":        {},
	"system_leave_channel":       {},
	"system_add_to_channel":      {},
	"system_remove_from_channel": {},
	"system_join_team":           {},
	"system_leave_team":          {},
	model.PostTypeChannelDeleted: {},
}

func shouldIgnorePost(post *model.Post) bool {
	_, ok := ignoredPostTypes[post.Type]
	return ok
}

// HandleNewPost folds one inbound post-created event into the store:
// membership and thread context are resolved first, then the receipt and
// stop-typing signals land, then the read/unread policy applies.
func (m *Manager) HandleNewPost(ctx context.Context,
	event *model.WebsocketEvent) error {
	post, mentions, err := decodePostedEvent(event)
	if err != nil {
		jww.ERROR.Printf("[WS] Dropped malformed posted event: %+v", err)
		return err
	}

	// A membership record that exists but was never populated signals the
	// channel metadata has not been loaded yet.
	if member := m.st.MyChannelMember(post.ChannelId); member != nil &&
		member.IsEmpty() {
		fetched, err := m.remote.GetChannelMember(
			ctx, post.ChannelId, m.st.CurrentUserId())
		if err != nil {
			m.logError("HandleNewPost", err)
		} else {
			m.st.Dispatch(store.Action{
				Type: store.ReceivedChannelMember, Member: fetched})
		}
	}

	// Load the thread before surfacing a reply whose parent is unknown, so
	// the post never renders without its context.
	if post.RootId != "" && m.st.Post(post.RootId) == nil {
		if _, err := m.GetPostThread(ctx, post.RootId); err != nil {
			jww.WARN.Printf("[WS] Could not resolve thread %s for %s: %+v",
				post.RootId, post.Id, err)
		}
	}

	m.st.DispatchAll(
		store.Action{Type: store.ReceivedNewPost, Post: post},
		store.Action{
			Type:      store.StopTyping,
			ChannelId: post.ChannelId,
			RootId:    post.RootId,
			UserId:    post.UserId,
		})

	if shouldIgnorePost(post) {
		return nil
	}

	switch {
	case post.UserId == m.st.CurrentUserId() &&
		!post.IsSystemMessage() && !post.IsFromWebhook():
		// Own posts are always read, regardless of focus. The server
		// already knows: it received the create request.
		m.st.Dispatch(store.Action{
			Type: store.ChannelMarkedRead, ChannelId: post.ChannelId})

	case post.ChannelId == m.st.CurrentChannelId():
		m.st.Dispatch(store.Action{
			Type: store.ChannelMarkedRead, ChannelId: post.ChannelId})
		if err := m.remote.ViewChannel(
			ctx, m.st.CurrentUserId(), post.ChannelId); err != nil {
			m.logError("ViewChannel", err)
		}

	default:
		m.st.Dispatch(store.Action{
			Type:         store.ChannelMarkedUnread,
			ChannelId:    post.ChannelId,
			MentionedIds: mentions,
		})
	}
	return nil
}

// decodePostedEvent extracts the post and mention list from a posted
// event. Both arrive as JSON strings nested inside the envelope data.
func decodePostedEvent(event *model.WebsocketEvent) (
	*model.Post, []string, error) {
	raw, ok := event.Data["post"].(string)
	if !ok {
		return nil, nil, errors.Errorf(
			"posted event (seq %d) carries no post payload", event.Seq)
	}
	var post model.Post
	if err := json.Unmarshal([]byte(raw), &post); err != nil {
		return nil, nil, errors.Wrap(err, "failed to unmarshal event post")
	}

	var mentions []string
	if rawMentions, ok := event.Data["mentions"].(string); ok {
		// Malformed mention metadata only degrades unread badges; the
		// post itself still applies.
		if err := json.Unmarshal(
			[]byte(rawMentions), &mentions); err != nil {
			jww.WARN.Printf("[WS] Unreadable mentions on post %s: %+v",
				post.Id, err)
		}
	}
	return &post, mentions, nil
}

// RunListener consumes a websocket event stream until the context ends or
// the stream closes. Events this layer does not own are dropped.
func (m *Manager) RunListener(ctx context.Context,
	events <-chan *model.WebsocketEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			m.applyEvent(ctx, event)
		}
	}
}

func (m *Manager) applyEvent(ctx context.Context,
	event *model.WebsocketEvent) {
	switch event.Event {
	case model.WebsocketEventPosted:
		_ = m.HandleNewPost(ctx, event)

	case model.WebsocketEventPostEdited:
		if post, _, err := decodePostedEvent(event); err != nil {
			jww.WARN.Printf(
				"[WS] Dropped malformed edit event: %+v", err)
		} else {
			m.st.Dispatch(store.Action{
				Type: store.ReceivedPost, Post: post})
		}

	case model.WebsocketEventPostDeleted:
		if post, _, err := decodePostedEvent(event); err != nil {
			jww.WARN.Printf(
				"[WS] Dropped malformed delete event: %+v", err)
		} else {
			m.st.Dispatch(store.Action{
				Type: store.PostDeleted, Post: post})
		}

	case model.WebsocketEventTyping:
		userId, _ := event.Data["user_id"].(string)
		rootId, _ := event.Data["parent_id"].(string)
		channelId := ""
		if event.Broadcast != nil {
			channelId = event.Broadcast.ChannelId
		}
		if userId != "" && channelId != "" {
			m.st.Dispatch(store.Action{
				Type:      store.UserTyping,
				ChannelId: channelId,
				RootId:    rootId,
				UserId:    userId,
			})
		}

	default:
		jww.TRACE.Printf("[WS] Ignored event %q", event.Event)
	}
}
