////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

import (
	"github.com/forPelevin/gomoji"
	"github.com/pkg/errors"
)

// InvalidReaction is returned if the passed reaction string is neither a
// single emoji character nor a known emoji name.
var InvalidReaction = errors.New(
	"the reaction is not valid, it must be a single emoji or an emoji name")

// Reaction is a (post, user, emoji) triple. Adds and removes are idempotent
// at this layer; the server is authoritative.
type Reaction struct {
	UserId    string `json:"user_id"`
	PostId    string `json:"post_id"`
	EmojiName string `json:"emoji_name"`
	CreateAt  int64  `json:"create_at"`
}

// ValidateReaction checks that the reaction is a single emoji character or
// a plain emoji name such as "smile". Returns InvalidReaction otherwise.
func ValidateReaction(reaction string) error {
	if reaction == "" {
		return InvalidReaction
	}

	emojisList := gomoji.CollectAll(reaction)
	if len(emojisList) == 1 && emojisList[0].Character == reaction {
		return nil
	}
	if len(emojisList) > 0 {
		// Mixed emoji and text, or more than one emoji
		return InvalidReaction
	}

	for _, r := range reaction {
		if !isEmojiNameRune(r) {
			return InvalidReaction
		}
	}
	return nil
}

func isEmojiNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '+':
		return true
	}
	return false
}
