////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

// Websocket event names this layer consumes.
const (
	WebsocketEventPosted      = "posted"
	WebsocketEventTyping      = "typing"
	WebsocketEventPostEdited  = "post_edited"
	WebsocketEventPostDeleted = "post_deleted"
)

// WebsocketEvent is the inbound event envelope. Data values are loosely
// typed: entity payloads arrive as JSON-encoded strings inside the JSON
// envelope and are extracted field-by-field by the consumer.
type WebsocketEvent struct {
	Event     string                 `json:"event"`
	Seq       int64                  `json:"seq"`
	Data      map[string]interface{} `json:"data"`
	Broadcast *WebsocketBroadcast    `json:"broadcast"`
}

// WebsocketBroadcast describes the scope the server delivered the event to.
type WebsocketBroadcast struct {
	ChannelId string `json:"channel_id"`
	TeamId    string `json:"team_id"`
	UserId    string `json:"user_id"`
}
