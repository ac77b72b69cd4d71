////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import "github.com/pkg/errors"

var (
	// MissingChannelErr is returned when a draft post carries no channel
	// id.
	MissingChannelErr = errors.New(
		"the draft post must reference a channel")

	// CombinedPostSendErr is returned when a combined-activity post is
	// passed to an operation that only accepts real server records.
	CombinedPostSendErr = errors.New(
		"a combined-activity post cannot be sent or edited")
)
