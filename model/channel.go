////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

// Channel is the slice of channel state this layer reads and adjusts:
// identification plus the message counter the synchronization engine bumps
// on confirmed creates.
type Channel struct {
	Id            string `json:"id"`
	TeamId        string `json:"team_id"`
	Name          string `json:"name"`
	DisplayName   string `json:"display_name"`
	TotalMsgCount int64  `json:"total_msg_count"`
	DeleteAt      int64  `json:"delete_at"`
}

// ChannelMember is the current user's membership record for a channel. A
// record that exists but has never been populated from the server has a
// zero MsgCount, zero LastViewedAt and empty Roles; the real-time applier
// uses that shape as the "present but empty" refetch signal.
type ChannelMember struct {
	ChannelId    string `json:"channel_id"`
	UserId       string `json:"user_id"`
	Roles        string `json:"roles"`
	MsgCount     int64  `json:"msg_count"`
	MentionCount int64  `json:"mention_count"`
	LastViewedAt int64  `json:"last_viewed_at"`
}

// IsEmpty reports whether the membership record has never been populated.
func (cm *ChannelMember) IsEmpty() bool {
	return cm.Roles == "" && cm.MsgCount == 0 && cm.LastViewedAt == 0
}
