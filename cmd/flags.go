////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package cmd

// CLI flag name constants. Pulling flags using Viper should use the
// constants defined here.
const (
	// Connection flags
	serverFlag = "server"
	tokenFlag  = "token"
	userIdFlag = "userId"

	// Send flags
	channelFlag = "channel"
	messageFlag = "message"

	// Listen flags
	listenFlag = "listen"

	// Engine tuning
	customEmojiFlag  = "customEmoji"
	postsPerPageFlag = "postsPerPage"
	unreadLimitFlag  = "unreadLimit"

	// Log flags
	logLevelFlag = "logLevel"
	logFlag      = "log"

	// Misc
	sessionFlag  = "session"
	passwordFlag = "password"
)
