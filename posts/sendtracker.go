////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/ekv"

	"github.com/avegrv/mattermost-redux/model"
)

const sendTrackerStorageKey = "pendingSendJournal"

// pendingSend is one journaled in-flight create, keyed by its pending id.
// Enough of the draft is kept to replay the send after a restart.
type pendingSend struct {
	PendingId string   `json:"pending_id"`
	ChannelId string   `json:"channel_id"`
	RootId    string   `json:"root_id"`
	Message   string   `json:"message"`
	FileIds   []string `json:"file_ids,omitempty"`
	CreateAt  int64    `json:"create_at"`
}

// sendTracker deduplicates sends by pending id and journals them so queued
// offline sends survive a restart. A reservation is released exactly once
// per outcome; release of an unknown id is a no-op.
type sendTracker struct {
	mux     sync.Mutex
	pending map[string]*pendingSend
	kv      ekv.KeyValue
}

// loadSendTracker restores the journal from the key-value store.
func loadSendTracker(kv ekv.KeyValue) (*sendTracker, error) {
	st := &sendTracker{
		pending: make(map[string]*pendingSend),
		kv:      kv,
	}

	journal := make(map[string]*pendingSend)
	err := kv.GetInterface(sendTrackerStorageKey, &journal)
	if err != nil && ekv.Exists(err) {
		return nil, errors.WithMessage(err,
			"failed to load pending send journal")
	}
	if len(journal) > 0 {
		jww.INFO.Printf("[SYNC] Restored %d pending send(s) from journal",
			len(journal))
		st.pending = journal
	}
	return st, nil
}

// reserve registers a pending id. It returns false if a send with this id
// is already outstanding, in which case the caller must treat the request
// as an already-successful duplicate.
func (st *sendTracker) reserve(post *model.Post) bool {
	st.mux.Lock()
	defer st.mux.Unlock()

	if _, outstanding := st.pending[post.PendingPostId]; outstanding {
		return false
	}

	st.pending[post.PendingPostId] = &pendingSend{
		PendingId: post.PendingPostId,
		ChannelId: post.ChannelId,
		RootId:    post.RootId,
		Message:   post.Message,
		FileIds:   post.FileIds,
		CreateAt:  post.CreateAt,
	}
	st.persist()
	return true
}

// release frees a reservation. Releasing an id that is not reserved is a
// no-op, so success and failure paths may both call it without
// coordination.
func (st *sendTracker) release(pendingId string) {
	st.mux.Lock()
	defer st.mux.Unlock()

	if _, outstanding := st.pending[pendingId]; !outstanding {
		return
	}
	delete(st.pending, pendingId)
	st.persist()
}

// outstanding reports whether the pending id is reserved.
func (st *sendTracker) outstanding(pendingId string) bool {
	st.mux.Lock()
	defer st.mux.Unlock()
	_, ok := st.pending[pendingId]
	return ok
}

// snapshot returns the journaled sends, for explicit replay by the app
// shell after a restart.
func (st *sendTracker) snapshot() []*pendingSend {
	st.mux.Lock()
	defer st.mux.Unlock()
	out := make([]*pendingSend, 0, len(st.pending))
	for _, ps := range st.pending {
		cp := *ps
		out = append(out, &cp)
	}
	return out
}

// persist writes the journal. Called under mux.
func (st *sendTracker) persist() {
	if err := st.kv.SetInterface(
		sendTrackerStorageKey, st.pending); err != nil {
		jww.ERROR.Printf(
			"[SYNC] Failed to persist pending send journal: %+v", err)
	}
}
