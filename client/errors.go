////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package client

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/avegrv/mattermost-redux/model"
)

// Server error ids that alter client rollback behaviour. They are consumed
// here only; past this file the closed enum is used.
const (
	serverErrRootDeleted     = "api.post.create_post.root_id.app_error"
	serverErrReadOnlyChannel = "api.post.create_post.town_square_read_only"
	serverErrPluginDismissed = "plugin.message_will_be_posted.dismiss_post"
)

var rejectionByServerErrorId = map[string]model.RejectionReason{
	serverErrRootDeleted:     model.RejectionRootDeleted,
	serverErrReadOnlyChannel: model.RejectionReadOnlyChannel,
	serverErrPluginDismissed: model.RejectionPluginDismissed,
}

// serverError is the error body shape returned by the server.
type serverError struct {
	Id         string `json:"id"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// errorFromResponse builds the uniform AppError from a non-2xx response,
// mapping the server error id onto the rejection enum. The body may be
// empty or malformed; the status line alone still produces a usable error.
func errorFromResponse(resp *http.Response) *model.AppError {
	appErr := &model.AppError{
		Message:    http.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
		RequestURL: resp.Request.URL.Path,
		Reason:     model.RejectionNone,
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil || len(body) == 0 {
		return appErr
	}

	var se serverError
	if err = json.Unmarshal(body, &se); err != nil {
		return appErr
	}

	if se.Message != "" {
		appErr.Message = se.Message
	}
	if reason, ok := rejectionByServerErrorId[se.Id]; ok {
		appErr.Reason = reason
	}
	return appErr
}
