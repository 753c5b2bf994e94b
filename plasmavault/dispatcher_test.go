// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/assert"
)

// ledgerSnapshot captures the vault state an adversarial batch must not be
// able to perturb.
type ledgerSnapshot struct {
	totalAssets uint64
	totalSupply uint64
	active      []MarketID
	balances    map[MarketID]uint64
}

func snapshotLedger(t *testing.T, vault *PlasmaVault, markets ...MarketID) ledgerSnapshot {
	totalAssets, err := vault.TotalAssets()
	assert.NoError(t, err)
	totalSupply, err := vault.TotalSupply()
	assert.NoError(t, err)
	active, err := vault.ActiveMarkets()
	assert.NoError(t, err)

	balances := make(map[MarketID]uint64, len(markets))
	for _, marketID := range markets {
		balance, err := vault.TotalAssetsInMarket(marketID)
		assert.NoError(t, err)
		balances[marketID] = balance
	}
	return ledgerSnapshot{
		totalAssets: totalAssets,
		totalSupply: totalSupply,
		active:      active,
		balances:    balances,
	}
}

func TestUnsupportedFuseGating(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	before := snapshotLedger(t, fix.vault, 1)

	// The module is registered in the bank but was never allow-listed.
	unlisted := ids.ShortID{0xff}
	fix.bank.RegisterExecutionFuse(unlisted, &supplyFuse{balances: fix.balances})

	err := fix.vault.Execute(atomist, []Action{
		{Fuse: unlisted, Op: OpEnter, Data: supplyParams(1, usdc, 100)},
	})
	assert.ErrorIs(err, errUnsupportedFuse)

	after := snapshotLedger(t, fix.vault, 1)
	assert.Equal(before, after)
}

func TestFuseRemovalBindsImmediately(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	assert.NoError(fix.vault.RemoveFuses(manager, []ids.ShortID{supplyFuseAddr}))

	err := fix.vault.Execute(atomist, []Action{
		{Fuse: supplyFuseAddr, Op: OpEnter, Data: supplyParams(1, usdc, 100)},
	})
	assert.ErrorIs(err, errUnsupportedFuse)
}

func TestSubstrateEnforcement(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	// An asset outside the market's allow-list is rejected by the fuse.
	dai := ids.ID{'d', 'a', 'i'}
	err := fix.vault.Execute(atomist, []Action{
		{Fuse: supplyFuseAddr, Op: OpEnter, Data: supplyParams(1, dai, 100)},
	})
	assert.ErrorIs(err, ErrUnsupportedSubstrate)

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.Zero(totalAssets)

	// The allow-listed asset passes.
	err = fix.vault.Execute(atomist, []Action{
		{Fuse: supplyFuseAddr, Op: OpEnter, Data: supplyParams(1, usdc, 100)},
	})
	assert.NoError(err)
}

// A batch of three actions where the second fails must leave no observable
// effect from the first.
func TestBatchAtomicity(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)
	fix.configureMarket(t, 2)

	before := snapshotLedger(t, fix.vault, 1, 2)

	err := fix.vault.Execute(atomist, []Action{
		{Fuse: supplyFuseAddr, Op: OpEnter, Data: supplyParams(1, usdc, 100)},
		{Fuse: failingFuseAddr, Op: OpEnter},
		{Fuse: supplyFuseAddr, Op: OpEnter, Data: supplyParams(2, usdc, 50)},
	})
	assert.ErrorIs(err, errFuseBroken)

	after := snapshotLedger(t, fix.vault, 1, 2)
	assert.Equal(before, after)
}

func TestUnknownOpFailsBatch(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)
	fix.configureMarket(t, 1)

	err := fix.vault.Execute(atomist, []Action{
		{Fuse: supplyFuseAddr, Op: Op(99), Data: supplyParams(1, usdc, 100)},
	})
	assert.ErrorIs(err, errUnknownOp)
}

func TestEmptyBatchIsNoop(t *testing.T) {
	assert := assert.New(t)
	fix := newTestVault(t)

	assert.NoError(fix.vault.Execute(atomist, nil))

	totalAssets, err := fix.vault.TotalAssets()
	assert.NoError(err)
	assert.Zero(totalAssets)
}
