////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"regexp"
	"strings"

	"github.com/golang-collections/collections/set"
)

// mentionPattern matches a leading "@" followed by username characters.
// Group 1 keeps trailing [.-] punctuation, group 2 is the canonical
// trimmed candidate; both are looked up because either form may be the
// real username.
var mentionPattern = regexp.MustCompile(
	`(?i)\B@(([a-z0-9.\-_]*[a-z0-9_])[.-]*)`)

// reservedMentions are broadcast tokens, never usernames.
var reservedMentions = set.New("all", "channel", "here")

// scanMentions collects the at-mentioned username candidates of a message
// into acc, skipping reserved tokens.
func scanMentions(message string, acc *set.Set) {
	for _, match := range mentionPattern.FindAllStringSubmatch(
		message, -1) {
		// match[1] preserves punctuation, match[2] is canonical.
		for _, candidate := range match[1:] {
			candidate = strings.ToLower(candidate)
			if candidate == "" ||
				reservedMentions.Has(candidate) {
				continue
			}
			acc.Insert(candidate)
		}
	}
}
