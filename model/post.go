////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

import (
	"strconv"
	"strings"
	"time"
)

const (
	// PostTypeDefault is the type of a plain user-authored message.
	PostTypeDefault = ""

	// PostTypeSystemPrefix prefixes every system-generated post type.
	PostTypeSystemPrefix = "system_"

	// PostTypeCombinedActivity is the type of a synthetic post that
	// collapses a batch of system-activity posts for display. It never
	// exists server-side.
	PostTypeCombinedActivity = "system_combined_user_activity"

	// PostTypeChannelDeleted marks channel-archived system posts, which the
	// real-time applier ignores for read/unread accounting.
	PostTypeChannelDeleted = "system_channel_deleted"
)

const (
	// PropsSystemPostIDs is the prop under which a combined-activity post
	// carries the ids of its member system posts.
	PropsSystemPostIDs = "system_post_ids"

	// PropsFromWebhook is set to "true" on posts created by an incoming
	// webhook or other automated integration.
	PropsFromWebhook = "from_webhook"

	// PropsAttachments carries rich message attachments for link/preview
	// rendering.
	PropsAttachments = "attachments"
)

// Post is a single message in a channel. Before server confirmation a post
// carries a client-generated pending id in Id and PendingPostId; once
// confirmed, Id is the server-assigned id and PendingPostId remains for
// correlation.
type Post struct {
	Id            string                 `json:"id"`
	CreateAt      int64                  `json:"create_at"`
	UpdateAt      int64                  `json:"update_at"`
	DeleteAt      int64                  `json:"delete_at"`
	UserId        string                 `json:"user_id"`
	ChannelId     string                 `json:"channel_id"`
	RootId        string                 `json:"root_id"`
	Message       string                 `json:"message"`
	Type          string                 `json:"type"`
	IsPinned      bool                   `json:"is_pinned"`
	FileIds       []string               `json:"file_ids,omitempty"`
	PendingPostId string                 `json:"pending_post_id"`
	Failed        bool                   `json:"failed,omitempty"`
	Props         map[string]interface{} `json:"props,omitempty"`
	Metadata      *PostMetadata          `json:"metadata,omitempty"`
}

// PostMetadata is server-resolved auxiliary data attached to a post.
// When Emojis is populated the server has already resolved every custom
// emoji the post references, so clients skip their own emoji scan.
type PostMetadata struct {
	Emojis    []*Emoji    `json:"emojis,omitempty"`
	Reactions []*Reaction `json:"reactions,omitempty"`
}

// PostKind discriminates the two post variants. Fan-out logic must switch
// exhaustively over both cases.
type PostKind uint8

const (
	// SinglePost is an ordinary post backed by one server record.
	SinglePost PostKind = iota

	// CombinedPost is a client-synthesized post whose members are the real
	// records; operations on it fan out to the members and never touch the
	// combined id itself.
	CombinedPost
)

// String adheres to the fmt.Stringer interface.
func (pk PostKind) String() string {
	switch pk {
	case SinglePost:
		return "single"
	case CombinedPost:
		return "combined"
	default:
		return "Invalid PostKind: " + strconv.Itoa(int(pk))
	}
}

// Kind returns the variant of the post. A post is Combined exactly when it
// carries the system-activity member id prop.
func (p *Post) Kind() PostKind {
	if p.Type == PostTypeCombinedActivity {
		return CombinedPost
	}
	if _, ok := p.Props[PropsSystemPostIDs]; ok {
		return CombinedPost
	}
	return SinglePost
}

// MemberIds returns the underlying post ids of a Combined post. It returns
// nil for a Single post.
func (p *Post) MemberIds() []string {
	if p.Kind() != CombinedPost {
		return nil
	}
	raw, ok := p.Props[PropsSystemPostIDs]
	if !ok {
		return nil
	}
	switch ids := raw.(type) {
	case []string:
		return ids
	case []interface{}:
		out := make([]string, 0, len(ids))
		for _, v := range ids {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// IsSystemMessage reports whether the post was generated by the system
// rather than typed by a user.
func (p *Post) IsSystemMessage() bool {
	return strings.HasPrefix(p.Type, PostTypeSystemPrefix)
}

// IsFromWebhook reports whether the post was created by an automated
// integration on behalf of a user.
func (p *Post) IsFromWebhook() bool {
	return p.Props[PropsFromWebhook] == "true"
}

// Clone returns a copy of the post safe to mutate. Props and FileIds are
// shallow-copied a level deep, which is as deep as this layer ever writes.
func (p *Post) Clone() *Post {
	c := *p
	if p.Props != nil {
		c.Props = make(map[string]interface{}, len(p.Props))
		for k, v := range p.Props {
			c.Props[k] = v
		}
	}
	if p.FileIds != nil {
		c.FileIds = append([]string(nil), p.FileIds...)
	}
	return &c
}

// PendingPostId builds the deterministic provisional id for a post sent by
// userId at the given moment. Uniqueness holds per (author, millisecond)
// pair; retries of the same logical send reuse the same id so duplicates
// can be detected.
func PendingPostId(userId string, at time.Time) string {
	return userId + ":" + strconv.FormatInt(at.UnixMilli(), 10)
}

// GetMillis returns the wall clock in epoch milliseconds, the timestamp
// unit used on the wire.
func GetMillis() int64 {
	return time.Now().UnixMilli()
}
