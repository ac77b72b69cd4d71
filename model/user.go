////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

// User is a cached profile. Only the fields the prefetcher and applier
// consult are carried.
type User struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	IsBot    bool   `json:"is_bot"`
	DeleteAt int64  `json:"delete_at"`
}

// Presence status values as reported by the server.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusDnd     = "dnd"
	StatusOffline = "offline"
)

// Status is a cached presence record for a user.
type Status struct {
	UserId string `json:"user_id"`
	Status string `json:"status"`
	Manual bool   `json:"manual"`
}
