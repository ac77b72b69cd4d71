////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package model

import (
	"net/http"
	"strconv"
	"strings"
)

// RejectionReason is the closed set of server rejection causes that alter
// client-side rollback behaviour. Raw server error id strings are mapped to
// this enum at the transport boundary and never compared past it.
type RejectionReason uint8

const (
	// RejectionNone means the error carries no special rejection cause.
	RejectionNone RejectionReason = iota

	// RejectionRootDeleted means the thread root of the post was deleted
	// before the post arrived.
	RejectionRootDeleted

	// RejectionReadOnlyChannel means the target channel does not accept
	// posts from this user.
	RejectionReadOnlyChannel

	// RejectionPluginDismissed means a server-side moderation plugin
	// rejected the post.
	RejectionPluginDismissed
)

// String returns a human-readable version of RejectionReason, used for
// debugging and logging. This function adheres to the fmt.Stringer
// interface.
func (rr RejectionReason) String() string {
	switch rr {
	case RejectionNone:
		return "none"
	case RejectionRootDeleted:
		return "root deleted"
	case RejectionReadOnlyChannel:
		return "read-only channel"
	case RejectionPluginDismissed:
		return "plugin dismissed"
	default:
		return "Invalid RejectionReason: " + strconv.Itoa(int(rr))
	}
}

// DiscardsOptimisticPost reports whether a create rejected for this reason
// should drop its optimistic record outright instead of marking it failed
// for retry.
func (rr RejectionReason) DiscardsOptimisticPost() bool {
	switch rr {
	case RejectionRootDeleted, RejectionReadOnlyChannel,
		RejectionPluginDismissed:
		return true
	case RejectionNone:
		return false
	}
	return false
}

// AppError is the uniform error surfaced by the remote client. It is a
// result value, never a panic.
type AppError struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code"`
	RequestURL string          `json:"-"`
	Reason     RejectionReason `json:"-"`
}

// Error adheres to the error interface.
func (e *AppError) Error() string {
	return e.Message + " (status " + strconv.Itoa(e.StatusCode) + ")"
}

// IsSessionExpired reports whether the error signals an invalid or expired
// session. Login failures carry the same status code but must not force a
// sign-out.
func (e *AppError) IsSessionExpired() bool {
	return e.StatusCode == http.StatusUnauthorized &&
		!strings.Contains(e.RequestURL, "/login")
}

// ReasonOf extracts the rejection reason from an error, returning
// RejectionNone for non-AppError values.
func ReasonOf(err error) RejectionReason {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Reason
	}
	return RejectionNone
}
