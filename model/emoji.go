////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

// Emoji is a custom emoji record. Built-in emoji never appear here; they
// are resolved locally via gomoji.
type Emoji struct {
	Id        string `json:"id"`
	CreatorId string `json:"creator_id"`
	Name      string `json:"name"`
	CreateAt  int64  `json:"create_at"`
	DeleteAt  int64  `json:"delete_at"`
}

// FileInfo describes an uploaded attachment. Files are uploaded against a
// pending post id and re-associated once the server confirms the post.
type FileInfo struct {
	Id       string `json:"id"`
	PostId   string `json:"post_id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// OpenGraph is scraped link-preview metadata for a URL referenced in a
// post.
type OpenGraph struct {
	Type        string `json:"type"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SiteName    string `json:"site_name"`
}
