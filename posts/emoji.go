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
	"sync"

	"github.com/forPelevin/gomoji"
	"github.com/golang-collections/collections/set"

	"github.com/avegrv/mattermost-redux/model"
)

// emojiPattern matches ":name:" emoji references in message text.
var emojiPattern = regexp.MustCompile(`:([a-zA-Z0-9_+-]+):`)

var (
	builtinEmojiOnce  sync.Once
	builtinEmojiNames map[string]struct{}
)

// isBuiltinEmoji reports whether the name refers to a standard emoji that
// needs no server round trip. Built-in names derive from the gomoji slug
// table with dashes normalized to underscores.
func isBuiltinEmoji(name string) bool {
	builtinEmojiOnce.Do(func() {
		all := gomoji.AllEmojis()
		builtinEmojiNames = make(map[string]struct{}, len(all))
		for _, e := range all {
			slug := strings.ReplaceAll(e.Slug, "-", "_")
			builtinEmojiNames[slug] = struct{}{}
		}
	})
	_, ok := builtinEmojiNames[strings.ToLower(name)]
	return ok
}

// scanEmojiNames collects the ":name:" references of a post into acc:
// the message body plus the text fields of any rich attachments.
func scanEmojiNames(post *model.Post, acc *set.Set) {
	collectEmojiNames(post.Message, acc)

	attachments, ok := post.Props[model.PropsAttachments].([]interface{})
	if !ok {
		return
	}
	for _, raw := range attachments {
		attachment, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		for _, key := range []string{"pretext", "text", "title"} {
			if text, ok := attachment[key].(string); ok {
				collectEmojiNames(text, acc)
			}
		}
		fields, ok := attachment["fields"].([]interface{})
		if !ok {
			continue
		}
		for _, rawField := range fields {
			field, ok := rawField.(map[string]interface{})
			if !ok {
				continue
			}
			if value, ok := field["value"].(string); ok {
				collectEmojiNames(value, acc)
			}
		}
	}
}

func collectEmojiNames(text string, acc *set.Set) {
	for _, match := range emojiPattern.FindAllStringSubmatch(text, -1) {
		acc.Insert(match[1])
	}
}
