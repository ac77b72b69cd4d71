////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

import "github.com/pkg/errors"

// PostList is one page of posts: an unordered id→post mapping plus the
// newest-first display order, with boundary markers signalling whether more
// pages exist in either temporal direction. An empty marker means "no
// further page", not "unknown".
type PostList struct {
	Order      []string         `json:"order"`
	Posts      map[string]*Post `json:"posts"`
	NextPostId string           `json:"next_post_id"`
	PrevPostId string           `json:"prev_post_id"`
}

// NewPostList returns an empty list with no further pages in either
// direction.
func NewPostList() *PostList {
	return &PostList{
		Order: []string{},
		Posts: map[string]*Post{},
	}
}

// AddPost inserts the post into the mapping without touching the order.
func (pl *PostList) AddPost(post *Post) {
	if pl.Posts == nil {
		pl.Posts = map[string]*Post{}
	}
	pl.Posts[post.Id] = post
}

// AddOrder appends the id to the display order.
func (pl *PostList) AddOrder(id string) {
	pl.Order = append(pl.Order, id)
}

// Validate checks the list invariant: every ordered id must resolve in the
// mapping.
func (pl *PostList) Validate() error {
	for _, id := range pl.Order {
		if _, ok := pl.Posts[id]; !ok {
			return errors.Errorf(
				"post list order references unknown post %s", id)
		}
	}
	return nil
}

// IsLastPage reports whether this page is the most recent one.
func (pl *PostList) IsLastPage() bool {
	return pl.NextPostId == ""
}

// IsOldestPage reports whether this page is the oldest one.
func (pl *PostList) IsOldestPage() bool {
	return pl.PrevPostId == ""
}
