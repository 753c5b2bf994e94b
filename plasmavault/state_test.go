// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"testing"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/assert"
)

// Replacing a substrate row must leave no residual membership entries.
func TestSubstrateWholeRowReplace(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	x := ids.ID{'x'}
	y := ids.ID{'y'}
	z := ids.ID{'z'}

	assert.NoError(state.SetSubstrates(1, []ids.ID{x, y}))

	allowed, err := state.IsSubstrateAllowed(1, x)
	assert.NoError(err)
	assert.True(allowed)
	allowed, err = state.IsSubstrateAllowed(1, y)
	assert.NoError(err)
	assert.True(allowed)

	assert.NoError(state.SetSubstrates(1, []ids.ID{z}))

	for _, stale := range []ids.ID{x, y} {
		allowed, err = state.IsSubstrateAllowed(1, stale)
		assert.NoError(err)
		assert.False(allowed)
	}
	allowed, err = state.IsSubstrateAllowed(1, z)
	assert.NoError(err)
	assert.True(allowed)

	substrates, err := state.GetSubstrates(1)
	assert.NoError(err)
	assert.Equal([]ids.ID{z}, substrates)

	// Rows are ordered-unique: duplicates keep their first position.
	assert.NoError(state.SetSubstrates(1, []ids.ID{x, z, x}))
	substrates, err = state.GetSubstrates(1)
	assert.NoError(err)
	assert.Equal([]ids.ID{x, z}, substrates)

	// Clearing the row removes everything.
	assert.NoError(state.SetSubstrates(1, nil))
	substrates, err = state.GetSubstrates(1)
	assert.NoError(err)
	assert.Empty(substrates)
	allowed, err = state.IsSubstrateAllowed(1, z)
	assert.NoError(err)
	assert.False(allowed)
}

func TestSubstrateRowsAreIndependent(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	x := ids.ID{'x'}
	assert.NoError(state.SetSubstrates(1, []ids.ID{x}))

	allowed, err := state.IsSubstrateAllowed(2, x)
	assert.NoError(err)
	assert.False(allowed)
}

func TestFuseRegistryIdempotent(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	fuse := ids.ShortID{0x01}

	supported, err := state.IsFuseSupported(fuse)
	assert.NoError(err)
	assert.False(supported)

	// Adding twice and removing an absent fuse are no-ops, not errors.
	assert.NoError(state.AddFuses([]ids.ShortID{fuse}))
	assert.NoError(state.AddFuses([]ids.ShortID{fuse}))

	supported, err = state.IsFuseSupported(fuse)
	assert.NoError(err)
	assert.True(supported)

	assert.NoError(state.RemoveFuses([]ids.ShortID{fuse}))
	assert.NoError(state.RemoveFuses([]ids.ShortID{fuse}))

	supported, err = state.IsFuseSupported(fuse)
	assert.NoError(err)
	assert.False(supported)
}

func TestBalanceFuseBinding(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	first := ids.ShortID{0x01}
	second := ids.ShortID{0x02}

	bound, err := state.GetBalanceFuse(9)
	assert.NoError(err)
	assert.Equal(ids.ShortEmpty, bound)

	assert.NoError(state.SetBalanceFuse(9, first))
	bound, err = state.GetBalanceFuse(9)
	assert.NoError(err)
	assert.Equal(first, bound)

	// Rebinding overwrites; a market has at most one balance fuse.
	assert.NoError(state.SetBalanceFuse(9, second))
	bound, err = state.GetBalanceFuse(9)
	assert.NoError(err)
	assert.Equal(second, bound)

	assert.NoError(state.SetBalanceFuse(9, ids.ShortEmpty))
	bound, err = state.GetBalanceFuse(9)
	assert.NoError(err)
	assert.Equal(ids.ShortEmpty, bound)
}

func TestDependencyGraphRows(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	err := state.UpdateDependencyGraph([]MarketID{1, 2}, [][]MarketID{{3}})
	assert.ErrorIs(err, errInvalidArrayLength)

	assert.NoError(state.UpdateDependencyGraph(
		[]MarketID{1, 2},
		[][]MarketID{{2, 3}, {3}},
	))

	dependents, err := state.GetDependencies(1)
	assert.NoError(err)
	assert.Equal([]MarketID{2, 3}, dependents)

	// Whole-row replace.
	assert.NoError(state.UpdateDependencyGraph([]MarketID{1}, [][]MarketID{{9}}))
	dependents, err = state.GetDependencies(1)
	assert.NoError(err)
	assert.Equal([]MarketID{9}, dependents)

	// Empty row prunes the market from the graph.
	assert.NoError(state.UpdateDependencyGraph([]MarketID{1}, [][]MarketID{nil}))
	dependents, err = state.GetDependencies(1)
	assert.NoError(err)
	assert.Empty(dependents)
}

func TestLedgerActivation(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	balance, err := state.GetMarketBalance(1)
	assert.NoError(err)
	assert.Zero(balance)

	assert.NoError(state.PutMarketBalance(1, 100))
	assert.NoError(state.PutMarketBalance(2, 200))
	assert.NoError(state.PutMarketBalance(3, 300))

	active, err := state.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{1, 2, 3}, active)

	// Rewriting an active market must not duplicate it.
	assert.NoError(state.PutMarketBalance(2, 250))
	active, err = state.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{1, 2, 3}, active)

	// Zeroing a middle market swap-removes: the last slot's market moves in.
	assert.NoError(state.PutMarketBalance(1, 0))
	active, err = state.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{3, 2}, active)

	balance, err = state.GetMarketBalance(1)
	assert.NoError(err)
	assert.Zero(balance)

	// Zeroing the last slot needs no swap.
	assert.NoError(state.PutMarketBalance(2, 0))
	active, err = state.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{3}, active)

	// Reactivation appends again.
	assert.NoError(state.PutMarketBalance(1, 10))
	active, err = state.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{3, 1}, active)
}

// Committed state must survive reopening on the same database.
func TestStatePersistence(t *testing.T) {
	assert := assert.New(t)
	db := memdb.New()

	state := NewState(db)
	assert.NoError(state.SetSubstrates(1, []ids.ID{{'x'}}))
	assert.NoError(state.PutMarketBalance(1, 42))
	assert.NoError(state.SetTotalAssets(42))
	assert.NoError(state.Commit())

	reopened := NewState(db)
	substrates, err := reopened.GetSubstrates(1)
	assert.NoError(err)
	assert.Equal([]ids.ID{{'x'}}, substrates)

	balance, err := reopened.GetMarketBalance(1)
	assert.NoError(err)
	assert.EqualValues(42, balance)

	totalAssets, err := reopened.GetTotalAssets()
	assert.NoError(err)
	assert.EqualValues(42, totalAssets)

	active, err := reopened.ActiveMarkets()
	assert.NoError(err)
	assert.Equal([]MarketID{1}, active)
}

// Abort must discard pending writes and any cache entries they populated.
func TestStateAbort(t *testing.T) {
	assert := assert.New(t)
	state := NewState(memdb.New())

	assert.NoError(state.PutMarketBalance(1, 100))
	assert.NoError(state.Commit())

	assert.NoError(state.PutMarketBalance(1, 999))
	assert.NoError(state.SetSubstrates(1, []ids.ID{{'x'}}))
	state.Abort()

	balance, err := state.GetMarketBalance(1)
	assert.NoError(err)
	assert.EqualValues(100, balance)

	allowed, err := state.IsSubstrateAllowed(1, ids.ID{'x'})
	assert.NoError(err)
	assert.False(allowed)
}
