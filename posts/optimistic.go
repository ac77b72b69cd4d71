////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file                                                               //
////////////////////////////////////////////////////////////////////////////////

package posts

import (
	"context"

	"github.com/pkg/errors"
)

// optimisticOp is one optimistic mutation expressed as an explicit
// three-phase protocol: apply the local update, run the remote effect, then
// commit or roll back. The runner guarantees rollback runs iff the effect
// fails and commit runs exactly once on success.
type optimisticOp struct {
	// apply dispatches the optimistic local update. May be nil when the
	// operation has no optimistic phase.
	apply func()

	// effect performs the remote call and returns its confirmation value.
	effect func(ctx context.Context) (interface{}, error)

	// commit folds the confirmation into local state.
	commit func(confirmed interface{})

	// rollback undoes or reclassifies the optimistic update.
	rollback func(err error)
}

// runOptimistic executes the protocol. A panic inside the effect is treated
// as a failure: rollback still runs, then the error is returned.
func runOptimistic(ctx context.Context, op optimisticOp) (
	interface{}, error) {
	if op.apply != nil {
		op.apply()
	}

	confirmed, err := func() (confirmed interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Errorf("optimistic effect panicked: %v", r)
			}
		}()
		return op.effect(ctx)
	}()

	if err != nil {
		if op.rollback != nil {
			op.rollback(err)
		}
		return nil, err
	}

	if op.commit != nil {
		op.commit(confirmed)
	}
	return confirmed, nil
}
