// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileIdempotent(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	fix.balances.values[1] = 100
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(100, totalAssets)

	// Nothing moved, so a second pass is a zero-delta no-op.
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	totalAssets, err = fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(100, totalAssets)
	assert.Equal(2, fix.balances.reads[1])
}

// A 3-cycle in the dependency graph terminates with each member reconciled
// exactly once.
func TestCyclicDependencyTerminates(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)

	markets := []MarketID{1, 2, 3}
	for _, marketID := range markets {
		fix.configureMarket(t, marketID)
		fix.balances.values[marketID] = 10
	}
	assert.NoError(fix.vault.UpdateDependencyGraph(manager,
		markets,
		[][]MarketID{{2}, {3}, {1}},
	))

	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	for _, marketID := range markets {
		assert.Equal(1, fix.balances.reads[marketID], "market %d", marketID)

		balance, err := fix.vault.TotalAssetsInMarket(marketID)
		assert.NoError(err)
		assert.EqualValues(10, balance)
	}

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(30, totalAssets)
}

// A market reachable through two dependency paths is counted once.
func TestNoDoubleCounting(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)

	// Diamond: 1 -> {2, 3}, 2 -> 4, 3 -> 4.
	markets := []MarketID{1, 2, 3, 4}
	for _, marketID := range markets {
		fix.configureMarket(t, marketID)
		fix.balances.values[marketID] = 10
	}
	assert.NoError(fix.vault.UpdateDependencyGraph(manager,
		[]MarketID{1, 2, 3},
		[][]MarketID{{2, 3}, {4}, {4}},
	))

	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	assert.Equal(1, fix.balances.reads[4])

	// Total assets equal the sum over active markets.
	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)

	active, err := fix.vault.ActiveMarkets()
	assert.NoError(err)
	sum := uint64(0)
	for _, marketID := range active {
		balance, err := fix.vault.TotalAssetsInMarket(marketID)
		assert.NoError(err)
		sum += balance
	}
	assert.Equal(sum, totalAssets)
	assert.EqualValues(40, totalAssets)
}

// A market with a dependency row but no balance fuse still propagates the
// touch to its dependents.
func TestFuselessMarketPropagatesTouch(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)

	// Market 1 has no balance fuse; market 2 does.
	fix.configureMarket(t, 2)
	fix.balances.values[2] = 50
	assert.NoError(fix.vault.UpdateDependencyGraph(manager,
		[]MarketID{1},
		[][]MarketID{{2}},
	))

	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(50, totalAssets)

	// The fuseless market never entered the ledger.
	balance, err := fix.vault.TotalAssetsInMarket(1)
	assert.NoError(err)
	assert.Zero(balance)
}

func TestValueDropReducesTotalAssets(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	fix.balances.values[1] = 100
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	fix.balances.values[1] = 40
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(40, totalAssets)

	// Dropping to zero deactivates the market.
	fix.balances.values[1] = 0
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1}))

	active, err := fix.vault.ActiveMarkets()
	assert.NoError(err)
	assert.Empty(active)
}

// Arithmetic overflow while applying a delta fails the whole pass instead of
// wrapping around.
func TestDeltaOverflowFailsLoudly(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	_, err := fix.vault.Deposit(1)
	assert.NoError(err)

	fix.balances.values[1] = math.MaxUint64
	err = fix.vault.Reconcile(atomist, []MarketID{1})
	assert.Error(err)

	// The failed pass left no trace.
	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(1, totalAssets)

	balance, err := fix.vault.TotalAssetsInMarket(1)
	assert.NoError(err)
	assert.Zero(balance)
}

func TestReconcileAllActiveMarkets(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)
	fix.configureMarket(t, 2)

	fix.balances.values[1] = 10
	fix.balances.values[2] = 20
	assert.NoError(fix.vault.Reconcile(atomist, []MarketID{1, 2}))

	// With no arguments, every active market is refreshed.
	fix.balances.values[1] = 15
	fix.balances.values[2] = 25
	assert.NoError(fix.vault.Reconcile(atomist, nil))

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.EqualValues(40, totalAssets)
}
