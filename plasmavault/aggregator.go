// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"
)

var errMissingBalanceModule = errors.New("no module registered for balance fuse")

// Delta is a signed change to total assets carried as two unsigned
// accumulators so that over/underflow fails loudly instead of wrapping.
type Delta struct {
	Added   uint64
	Removed uint64
}

// IsZero reports whether applying the delta would leave total assets
// unchanged.
func (d Delta) IsZero() bool {
	return d.Added == d.Removed
}

// Apply returns [total] moved by the delta, failing on arithmetic
// over/underflow.
func (d Delta) Apply(total uint64) (uint64, error) {
	if d.Added >= d.Removed {
		return safemath.Add64(total, d.Added-d.Removed)
	}
	return safemath.Sub64(total, d.Removed-d.Added)
}

// aggregator recomputes touched markets' balances and folds the net change
// into a single delta. It is the only component allowed to write ledger
// entries.
type aggregator struct {
	state  State
	bank   *FuseBank
	oracle PriceOracle
}

// Reconcile expands [touched] through the dependency graph and refreshes
// each reachable market's ledger entry from its balance fuse. Each market is
// visited at most once per reconciliation, so a cyclic graph degrades to
// every member reconciled once rather than an infinite expansion. Markets
// with no balance fuse contribute zero and are not re-read, but their
// dependents are still enqueued.
func (a *aggregator) Reconcile(touched map[MarketID]struct{}) (Delta, error) {
	balanceCtx := &BalanceContext{state: a.state, oracle: a.oracle}

	queue := sortedMarkets(touched)
	visited := make(map[MarketID]struct{}, len(queue))

	delta := Delta{}
	for len(queue) > 0 {
		marketID := queue[0]
		queue = queue[1:]

		if _, done := visited[marketID]; done {
			continue
		}
		visited[marketID] = struct{}{}

		dependents, err := a.state.GetDependencies(marketID)
		if err != nil {
			return Delta{}, err
		}
		queue = append(queue, dependents...)

		fuseAddr, err := a.state.GetBalanceFuse(marketID)
		if err != nil {
			return Delta{}, err
		}
		if fuseAddr == ids.ShortEmpty {
			continue
		}

		module, ok := a.bank.BalanceFuse(fuseAddr)
		if !ok {
			return Delta{}, fmt.Errorf("%w: %s", errMissingBalanceModule, fuseAddr)
		}

		newValue, err := module.ReportBalance(balanceCtx, marketID)
		if err != nil {
			return Delta{}, fmt.Errorf("balance fuse %s failed for market %d: %w", fuseAddr, marketID, err)
		}

		lastValue, err := a.state.GetMarketBalance(marketID)
		if err != nil {
			return Delta{}, err
		}

		if newValue >= lastValue {
			delta.Added, err = safemath.Add64(delta.Added, newValue-lastValue)
		} else {
			delta.Removed, err = safemath.Add64(delta.Removed, lastValue-newValue)
		}
		if err != nil {
			return Delta{}, err
		}

		if err := a.state.PutMarketBalance(marketID, newValue); err != nil {
			return Delta{}, err
		}
	}
	return delta, nil
}
