// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"fmt"
)

var (
	errUnsupportedFuse   = errors.New("unsupported fuse")
	errUnknownFuseModule = errors.New("no module registered for fuse")
	errUnknownOp         = errors.New("unknown fuse operation")
)

// dispatcher runs an ordered batch of fuse actions. Actions are never
// reordered: later actions may depend on state mutated by earlier ones.
type dispatcher struct {
	state State
	bank  *FuseBank
}

// run executes every action in list order and returns the union of the
// market IDs the fuses reported as touched. The supported-fuse check happens
// per action, immediately before invocation, so removing a fuse mid-batch
// binds for the remaining actions. The first failure stops the batch; the
// caller is responsible for aborting the state layer.
func (d *dispatcher) run(ctx *FuseContext, actions []Action) (map[MarketID]struct{}, error) {
	touched := make(map[MarketID]struct{})

	for i, action := range actions {
		supported, err := d.state.IsFuseSupported(action.Fuse)
		if err != nil {
			return nil, err
		}
		if !supported {
			return nil, fmt.Errorf("%w: %s", errUnsupportedFuse, action.Fuse)
		}

		module, ok := d.bank.ExecutionFuse(action.Fuse)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownFuseModule, action.Fuse)
		}

		var markets []MarketID
		switch action.Op {
		case OpEnter:
			markets, err = module.Enter(ctx, action.Data)
		case OpExit:
			markets, err = module.Exit(ctx, action.Data)
		default:
			err = fmt.Errorf("%w: %d", errUnknownOp, action.Op)
		}
		if err != nil {
			return nil, fmt.Errorf("action %d (fuse %s): %w", i, action.Fuse, err)
		}

		for _, marketID := range markets {
			touched[marketID] = struct{}{}
		}
	}
	return touched, nil
}
