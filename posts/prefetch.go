////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"

	"github.com/golang-collections/collections/set"
	jww "github.com/spf13/jwalterweatherman"
	"golang.org/x/sync/errgroup"

	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// demandSets are the four disjoint dependency groups a post batch can
// require before it is surfaced.
type demandSets struct {
	userIds    []string
	statusIds  []string
	usernames  []string
	emojiNames []string
}

// Prefetch resolves every dependency of a post batch that is not yet
// cached: author profiles, presence statuses, at-mentioned usernames and
// custom emoji. Each non-empty demand set becomes one concurrent fetch and
// Prefetch returns only when all of them have resolved.
func (m *Manager) Prefetch(ctx context.Context,
	batch map[string]*model.Post) error {
	demands := m.collectDemands(batch)

	g, gctx := errgroup.WithContext(ctx)

	if len(demands.userIds) > 0 {
		g.Go(func() error {
			users, err := m.remote.GetProfilesByIds(gctx, demands.userIds)
			if err != nil {
				return err
			}
			m.st.Dispatch(store.Action{
				Type: store.ReceivedProfiles, Users: users})
			return nil
		})
	}

	if len(demands.statusIds) > 0 {
		g.Go(func() error {
			statuses, err := m.remote.GetStatusesByIds(
				gctx, demands.statusIds)
			if err != nil {
				return err
			}
			m.st.Dispatch(store.Action{
				Type: store.ReceivedStatuses, Statuses: statuses})
			return nil
		})
	}

	if len(demands.usernames) > 0 {
		g.Go(func() error {
			users, err := m.remote.GetProfilesByUsernames(
				gctx, demands.usernames)
			if err != nil {
				return err
			}
			m.st.Dispatch(store.Action{
				Type: store.ReceivedProfiles, Users: users})
			return nil
		})
	}

	if len(demands.emojiNames) > 0 {
		g.Go(func() error {
			return m.fetchCustomEmojis(gctx, demands.emojiNames)
		})
	}

	if err := g.Wait(); err != nil {
		m.checkSessionExpiry(err)
		jww.ERROR.Printf("[PF] Dependency prefetch failed: %+v", err)
		return err
	}
	return nil
}

// PrefetchPosts is Prefetch for an ordered batch.
func (m *Manager) PrefetchPosts(ctx context.Context,
	batch []*model.Post) error {
	asMap := make(map[string]*model.Post, len(batch))
	for _, post := range batch {
		asMap[post.Id] = post
	}
	return m.Prefetch(ctx, asMap)
}

// collectDemands computes the four disjoint demand sets for the batch.
func (m *Manager) collectDemands(
	batch map[string]*model.Post) demandSets {
	currentUserId := m.st.CurrentUserId()
	scanEmoji := m.st.Config().EnableCustomEmoji

	userIds := set.New()
	statusIds := set.New()
	usernames := set.New()
	emojiNames := set.New()

	for _, post := range batch {
		if post.UserId != "" && post.UserId != currentUserId {
			if !m.st.HasProfile(post.UserId) {
				userIds.Insert(post.UserId)
			}
			if !m.st.HasStatus(post.UserId) {
				statusIds.Insert(post.UserId)
			}
		}

		scanMentions(post.Message, usernames)

		// A post whose metadata already resolves its emoji needs no scan.
		if scanEmoji &&
			(post.Metadata == nil || len(post.Metadata.Emojis) == 0) {
			scanEmojiNames(post, emojiNames)
		}
	}

	demands := demandSets{}
	userIds.Do(func(v interface{}) {
		demands.userIds = append(demands.userIds, v.(string))
	})
	statusIds.Do(func(v interface{}) {
		demands.statusIds = append(demands.statusIds, v.(string))
	})
	usernames.Do(func(v interface{}) {
		username := v.(string)
		if !m.st.HasProfileWithUsername(username) {
			demands.usernames = append(demands.usernames, username)
		}
	})
	emojiNames.Do(func(v interface{}) {
		name := v.(string)
		if isBuiltinEmoji(name) || m.st.HasCustomEmoji(name) ||
			m.st.EmojiKnownMissing(name) {
			return
		}
		demands.emojiNames = append(demands.emojiNames, name)
	})
	return demands
}

// fetchCustomEmojis loads custom emoji records by name and records names
// the server does not know, so they are never requested again.
func (m *Manager) fetchCustomEmojis(ctx context.Context,
	names []string) error {
	emojis, err := m.remote.GetCustomEmojisByName(ctx, names)
	if err != nil {
		return err
	}

	found := make(map[string]struct{}, len(emojis))
	for _, e := range emojis {
		found[e.Name] = struct{}{}
	}
	var missing []string
	for _, name := range names {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}

	actions := []store.Action{
		{Type: store.ReceivedCustomEmojis, Emojis: emojis},
	}
	if len(missing) > 0 {
		actions = append(actions, store.Action{
			Type:       store.CustomEmojisMissing,
			EmojiNames: missing,
		})
	}
	m.st.DispatchAll(actions...)
	return nil
}
