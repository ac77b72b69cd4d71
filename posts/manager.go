////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

// Package posts implements the post synchronization engine: optimistic
// create/edit/delete with rollback, the pending-send tracker, the fetch
// family, the dependency prefetcher and the real-time event applier. All
// state flows through an explicitly passed store handle; all network I/O
// goes through the client.Remote boundary.
package posts

import (
	"sync"
	"time"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ekv"

	"github.com/avegrv/mattermost-redux/client"
	"github.com/avegrv/mattermost-redux/model"
	"github.com/avegrv/mattermost-redux/store"
)

// Params tunes the fetch family.
type Params struct {
	// PostsPerPage is the page size for channel page fetches.
	PostsPerPage int

	// UnreadLimit bounds the unread window fetch on both sides.
	UnreadLimit int
}

// DefaultParams returns the fetch tuning used when the caller passes the
// zero value.
func DefaultParams() Params {
	return Params{
		PostsPerPage: 60,
		UnreadLimit:  60,
	}
}

// Manager is the synchronization engine handle.
type Manager struct {
	st     *store.Store
	remote client.Remote

	tracker *sendTracker
	params  Params

	// Deferred sends in flight; WaitForSends drains.
	sends sync.WaitGroup

	// now is swappable for deterministic pending ids in tests.
	now func() time.Time
}

// NewManager builds the engine around a store handle, a remote boundary
// and a key-value store for the pending-send journal.
func NewManager(st *store.Store, remote client.Remote, kv ekv.KeyValue,
	params Params) (*Manager, error) {
	if params.PostsPerPage == 0 {
		params = DefaultParams()
	}

	tracker, err := loadSendTracker(kv)
	if err != nil {
		return nil, err
	}

	return &Manager{
		st:      st,
		remote:  remote,
		tracker: tracker,
		params:  params,
		now:     time.Now,
	}, nil
}

// WaitForSends blocks until every deferred create issued so far has been
// confirmed or rolled back.
func (m *Manager) WaitForSends() {
	m.sends.Wait()
}

// checkSessionExpiry is run on every failed remote call. An expired or
// invalidated session forces a process-wide sign-out; everything else
// passes through untouched.
func (m *Manager) checkSessionExpiry(err error) {
	appErr, ok := err.(*model.AppError)
	if !ok || !appErr.IsSessionExpired() {
		return
	}
	jww.WARN.Printf("[SYNC] Session expired (%s), forcing sign-out",
		appErr.RequestURL)
	m.st.SignOut()
}

// logError is the shared error-logging side effect of the fetch family.
func (m *Manager) logError(op string, err error) {
	m.checkSessionExpiry(err)
	jww.ERROR.Printf("[SYNC] %s failed: %+v", op, err)
}
