// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	// ErrUnsupportedSubstrate is returned by fuse implementations when an
	// action references a substrate absent from the market's allow-list.
	ErrUnsupportedSubstrate = errors.New("unsupported substrate")
)

// Op selects which side of an execution fuse an action invokes.
type Op uint8

const (
	OpEnter Op = iota
	OpExit
)

// Action is one step of a dispatch batch: the address of the fuse to invoke
// and the opaque parameters the fuse decodes itself.
type Action struct {
	Fuse ids.ShortID
	Op   Op
	Data []byte
}

// ExecutionFuse is a pluggable adapter module that translates a generic
// enter/exit action into calls against one external protocol. A fuse runs
// with the vault's identity: the context it receives is the vault's own
// state handle, scoped down to reads. It reports the markets it touched by
// return value; fuses deliberately get no write access to the ledger.
type ExecutionFuse interface {
	Enter(ctx *FuseContext, data []byte) ([]MarketID, error)
	Exit(ctx *FuseContext, data []byte) ([]MarketID, error)
}

// BalanceFuse reports a market's current value in underlying-asset units.
// Implementations must be read-only; they may call out to external
// protocols' read APIs and the price oracle but must not mutate shared state.
type BalanceFuse interface {
	ReportBalance(ctx *BalanceContext, marketID MarketID) (uint64, error)
}

// FuseContext is the capability-scoped handle passed to an execution fuse
// for the duration of one batch. It exposes the vault's registries and
// ledger read-only.
type FuseContext struct {
	state  State
	oracle PriceOracle
}

func (ctx *FuseContext) IsSubstrateAllowed(marketID MarketID, substrate ids.ID) (bool, error) {
	return ctx.state.IsSubstrateAllowed(marketID, substrate)
}

func (ctx *FuseContext) Substrates(marketID MarketID) ([]ids.ID, error) {
	return ctx.state.GetSubstrates(marketID)
}

func (ctx *FuseContext) MarketBalance(marketID MarketID) (uint64, error) {
	return ctx.state.GetMarketBalance(marketID)
}

func (ctx *FuseContext) Oracle() PriceOracle {
	return ctx.oracle
}

// BalanceContext is the read-only handle passed to balance fuses during
// reconciliation.
type BalanceContext struct {
	state  State
	oracle PriceOracle
}

func (ctx *BalanceContext) Substrates(marketID MarketID) ([]ids.ID, error) {
	return ctx.state.GetSubstrates(marketID)
}

func (ctx *BalanceContext) Oracle() PriceOracle {
	return ctx.oracle
}

// FuseBank maps fuse addresses to the in-process modules implementing them.
// Registration here only makes a module callable; authorizing it for
// dispatch is the fuse registry's job and the two are checked independently.
type FuseBank struct {
	lock           sync.RWMutex
	executionFuses map[ids.ShortID]ExecutionFuse
	balanceFuses   map[ids.ShortID]BalanceFuse
}

func NewFuseBank() *FuseBank {
	return &FuseBank{
		executionFuses: make(map[ids.ShortID]ExecutionFuse),
		balanceFuses:   make(map[ids.ShortID]BalanceFuse),
	}
}

func (b *FuseBank) RegisterExecutionFuse(fuse ids.ShortID, module ExecutionFuse) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.executionFuses[fuse] = module
}

func (b *FuseBank) RegisterBalanceFuse(fuse ids.ShortID, module BalanceFuse) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.balanceFuses[fuse] = module
}

func (b *FuseBank) ExecutionFuse(fuse ids.ShortID) (ExecutionFuse, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	module, ok := b.executionFuses[fuse]
	return module, ok
}

func (b *FuseBank) BalanceFuse(fuse ids.ShortID) (BalanceFuse, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()

	module, ok := b.balanceFuses[fuse]
	return module, ok
}
