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
	"reflect"
	"testing"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// postedEvent builds the inbound envelope for a new post, with the entity
// JSON-encoded inside the JSON data, the way the server delivers it.
func postedEvent(t *testing.T, post *model.Post,
	mentions []string) *model.WebsocketEvent {
	t.Helper()

	rawPost, err := json.Marshal(post)
	if err != nil {
		t.Fatalf("Failed to marshal the post: %+v", err)
	}
	data := map[string]interface{}{"post": string(rawPost)}
	if mentions != nil {
		rawMentions, err := json.Marshal(mentions)
		if err != nil {
			t.Fatalf("Failed to marshal the mentions: %+v", err)
		}
		data["mentions"] = string(rawMentions)
	}
	return &model.WebsocketEvent{
		Event: model.WebsocketEventPosted,
		Seq:   1,
		Data:  data,
		Broadcast: &model.WebsocketBroadcast{
			ChannelId: post.ChannelId},
	}
}

// Tests that the current user's own post marks the channel read locally
// without notifying the server, which already knows.
func TestManager_HandleNewPost_OwnPost(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: testUserId,
		Message: "mine", CreateAt: 1000,
	}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if st.Post("p1") == nil {
		t.Errorf("Expected the post in the store")
	}
	if got := st.UnreadCount("c1"); got != 0 {
		t.Errorf("Expected the own post read, received unread %d", got)
	}
	if len(remote.viewChannelCalls) != 0 {
		t.Errorf("Expected no server view for an own post, received %v",
			remote.viewChannelCalls)
	}
}

// Tests that a post arriving in the focused channel is marked read locally
// and the server is notified.
func TestManager_HandleNewPost_FocusedChannel(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)
	st.SetCurrentChannel("c1")

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: "other",
		Message: "hi", CreateAt: 1000,
	}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if got := st.UnreadCount("c1"); got != 0 {
		t.Errorf("Expected the focused channel read, received unread %d",
			got)
	}
	if !reflect.DeepEqual(remote.viewChannelCalls, []string{"c1"}) {
		t.Errorf("Expected the server notified, received %v",
			remote.viewChannelCalls)
	}
}

// Tests that a post in a background channel marks it unread and counts a
// mention when the current user is mentioned.
func TestManager_HandleNewPost_BackgroundChannel(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)
	st.SetCurrentChannel("other-channel")

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: "other",
		Message: "ping @me", CreateAt: 1000,
	}
	err := m.HandleNewPost(context.Background(),
		postedEvent(t, post, []string{testUserId}))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if got := st.UnreadCount("c1"); got != 1 {
		t.Errorf("Expected unread 1, received %d", got)
	}
	if got := st.MentionCount("c1"); got != 1 {
		t.Errorf("Expected 1 mention, received %d", got)
	}
	if len(remote.viewChannelCalls) != 0 {
		t.Errorf("Expected no server view for a background channel")
	}
}

// Tests that a webhook post authored under the current user's id does not
// get the own-post treatment and still counts as unread elsewhere.
func TestManager_HandleNewPost_WebhookOwnId(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)
	st.SetCurrentChannel("other-channel")

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: testUserId,
		Message: "automated", CreateAt: 1000,
		Props: map[string]interface{}{model.PropsFromWebhook: "true"},
	}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if got := st.UnreadCount("c1"); got != 1 {
		t.Errorf("Expected a webhook post to count as unread, received %d",
			got)
	}
}

// Tests that an ignored system subtype still lands in the store and stops
// the author's typing indicator, but never touches read/unread state.
func TestManager_HandleNewPost_IgnoredType(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)
	st.SetCurrentChannel("other-channel")
	st.Dispatch(store.Action{Type: store.UserTyping,
		ChannelId: "c1", RootId: "", UserId: "other"})

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: "other",
		Type: model.PostTypeChannelDeleted, CreateAt: 1000,
	}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if st.Post("p1") == nil {
		t.Errorf("Expected the post stored despite being ignored")
	}
	if users := st.TypingUsers("c1", ""); len(users) != 0 {
		t.Errorf("Expected the typing indicator stopped, received %v",
			users)
	}
	if got := st.UnreadCount("c1"); got != 0 {
		t.Errorf("Expected read/unread untouched, received unread %d", got)
	}
}

// Tests that a membership record that is present but empty triggers a
// refetch and the fetched record replaces it.
func TestManager_HandleNewPost_EmptyMemberRefetch(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	st.DispatchAll(
		store.Action{Type: store.ReceivedChannel, Channel: &model.Channel{
			Id: "c1", TotalMsgCount: 5}},
		store.Action{Type: store.ReceivedChannelMember,
			Member: &model.ChannelMember{
				ChannelId: "c1", UserId: testUserId}},
	)

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: "other", CreateAt: 1000}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if !reflect.DeepEqual(remote.memberCalls, []string{"c1"}) {
		t.Errorf("Expected a membership refetch, received %v",
			remote.memberCalls)
	}
	if member := st.MyChannelMember("c1"); member == nil ||
		member.IsEmpty() {
		t.Errorf("Expected the fetched record cached, received %+v", member)
	}
}

// Tests that a populated membership record triggers no refetch.
func TestManager_HandleNewPost_PopulatedMemberNoRefetch(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)

	post := &model.Post{
		Id: "p1", ChannelId: "c1", UserId: "other", CreateAt: 1000}
	err := m.HandleNewPost(context.Background(), postedEvent(t, post, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if len(remote.memberCalls) != 0 {
		t.Errorf("Expected no membership refetch, received %v",
			remote.memberCalls)
	}
}

// Tests that a reply whose thread root is not cached pulls the thread
// before the reply is surfaced.
func TestManager_HandleNewPost_ThreadResolution(t *testing.T) {
	remote := &mockRemote{
		thread: listOf("", []string{"root1"}, []int64{500}),
	}
	m, st := newTestManager(t, remote)
	seedChannel(st, "c1", 5, 5)

	reply := &model.Post{
		Id: "p1", ChannelId: "c1", RootId: "root1", UserId: "other",
		CreateAt: 1000,
	}
	err := m.HandleNewPost(context.Background(), postedEvent(t, reply, nil))
	if err != nil {
		t.Fatalf("HandleNewPost failed: %+v", err)
	}

	if st.Post("root1") == nil {
		t.Errorf("Expected the thread root fetched and cached")
	}
	if st.Post("p1") == nil {
		t.Errorf("Expected the reply stored")
	}
}

// Tests that a malformed envelope is rejected without touching the store.
func TestManager_HandleNewPost_Malformed(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)

	event := &model.WebsocketEvent{
		Event: model.WebsocketEventPosted,
		Data:  map[string]interface{}{"post": "{not json"},
	}
	if err := m.HandleNewPost(context.Background(), event); err == nil {
		t.Fatalf("Expected the malformed event to fail")
	}
	if len(st.OrderInChannel("c1")) != 0 {
		t.Errorf("Expected no state change from a malformed event")
	}
}

// Tests the event dispatcher: typing events feed the indicator state and
// delete events leave a placeholder.
func TestManager_ApplyEvent(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	st.Dispatch(store.Action{Type: store.ReceivedNewPost, Post: &model.Post{
		Id: "p1", ChannelId: "c1", Message: "bye", CreateAt: 1000}})

	m.applyEvent(context.Background(), &model.WebsocketEvent{
		Event: model.WebsocketEventTyping,
		Data: map[string]interface{}{
			"user_id": "u1", "parent_id": ""},
		Broadcast: &model.WebsocketBroadcast{ChannelId: "c1"},
	})
	if users := st.TypingUsers("c1", ""); !reflect.DeepEqual(
		users, []string{"u1"}) {
		t.Errorf("Expected u1 typing, received %v", users)
	}

	deleted := &model.Post{Id: "p1", ChannelId: "c1"}
	m.applyEvent(context.Background(),
		&model.WebsocketEvent{
			Event: model.WebsocketEventPostDeleted,
			Data: map[string]interface{}{
				"post": mustMarshal(t, deleted)},
		})
	if rec := st.Post("p1"); rec == nil || rec.DeleteAt == 0 {
		t.Errorf("Expected a deleted placeholder, received %+v", rec)
	}
}

// Tests that malformed edit and delete envelopes are dropped without
// touching the cached record.
func TestManager_ApplyEvent_Malformed(t *testing.T) {
	remote := &mockRemote{}
	m, st := newTestManager(t, remote)
	st.Dispatch(store.Action{Type: store.ReceivedNewPost, Post: &model.Post{
		Id: "p1", ChannelId: "c1", Message: "original", CreateAt: 1000}})

	m.applyEvent(context.Background(), &model.WebsocketEvent{
		Event: model.WebsocketEventPostEdited,
		Data:  map[string]interface{}{"post": "{not json"},
	})
	if got := st.Post("p1").Message; got != "original" {
		t.Errorf("Expected the record untouched by a malformed edit, "+
			"received %q", got)
	}

	m.applyEvent(context.Background(), &model.WebsocketEvent{
		Event: model.WebsocketEventPostDeleted,
		Data:  map[string]interface{}{"post": "{not json"},
	})
	if got := st.Post("p1"); got.DeleteAt != 0 {
		t.Errorf("Expected no deletion from a malformed delete, "+
			"received %+v", got)
	}
}

func mustMarshal(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Failed to marshal: %+v", err)
	}
	return string(raw)
}
