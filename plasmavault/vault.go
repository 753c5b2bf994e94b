// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	safemath "github.com/ava-labs/avalanchego/utils/math"
	"github.com/ava-labs/avalanchego/version"
)

const (
	Name = "plasmavault"
)

var (
	Version = version.NewDefaultVersion(1, 0, 0)

	errUnauthorized       = errors.New("caller does not hold the required role")
	errZeroAmount         = errors.New("amount must be greater than zero")
	errInsufficientShares = errors.New("insufficient share supply")
	errVaultInsolvent     = errors.New("share supply outstanding against zero assets")
)

// PlasmaVault is the share-accounting shell around the market accounting
// core. Deposited capital is allocated across external protocols by
// dispatching batches of fuse actions; the ledger tracks how much value is
// deployed into each market and reconciliation folds per-market changes into
// the single total-assets figure that prices shares.
//
// The vault is the single writer over its state: privileged configuration,
// deposits, and allocation batches are serialized by one lock, matching the
// one-transaction-at-a-time execution model the accounting invariants assume.
type PlasmaVault struct {
	lock sync.RWMutex

	state  State
	bank   *FuseBank
	gate   RoleGate
	oracle PriceOracle

	dispatcher *dispatcher
	aggregator *aggregator
}

// New opens (and on first run initializes) a vault on top of [db].
func New(db database.Database, bank *FuseBank, gate RoleGate, oracle PriceOracle) (*PlasmaVault, error) {
	log.Info("initializing plasma vault", "version", Version)

	state := NewState(db)
	vault := &PlasmaVault{
		state:      state,
		bank:       bank,
		gate:       gate,
		oracle:     oracle,
		dispatcher: &dispatcher{state: state, bank: bank},
		aggregator: &aggregator{state: state, bank: bank, oracle: oracle},
	}

	initialized, err := state.IsInitialized()
	if err != nil {
		return nil, err
	}
	if !initialized {
		if err := state.SetInitialized(); err != nil {
			state.Abort()
			return nil, err
		}
		if err := state.Commit(); err != nil {
			state.Abort()
			return nil, fmt.Errorf("error while committing initial state: %w", err)
		}
		log.Info("created new vault state")
	}
	return vault, nil
}

// Close releases the underlying database.
func (vault *PlasmaVault) Close() error {
	vault.lock.Lock()
	defer vault.lock.Unlock()

	return vault.state.Close()
}

/*
 * Read surface
 */

// TotalAssets returns the vault's total-assets figure in underlying units.
func (vault *PlasmaVault) TotalAssets() (uint64, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetTotalAssets()
}

// TotalSupply returns the outstanding share supply.
func (vault *PlasmaVault) TotalSupply() (uint64, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetTotalSupply()
}

// TotalAssetsInMarket returns the market's last reconciled value.
func (vault *PlasmaVault) TotalAssetsInMarket(marketID MarketID) (uint64, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetMarketBalance(marketID)
}

func (vault *PlasmaVault) ActiveMarkets() ([]MarketID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.ActiveMarkets()
}

func (vault *PlasmaVault) GetSubstrates(marketID MarketID) ([]ids.ID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetSubstrates(marketID)
}

func (vault *PlasmaVault) IsSubstrateAllowed(marketID MarketID, substrate ids.ID) (bool, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.IsSubstrateAllowed(marketID, substrate)
}

func (vault *PlasmaVault) IsFuseSupported(fuse ids.ShortID) (bool, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.IsFuseSupported(fuse)
}

func (vault *PlasmaVault) GetBalanceFuse(marketID MarketID) (ids.ShortID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetBalanceFuse(marketID)
}

func (vault *PlasmaVault) GetDependencies(marketID MarketID) ([]MarketID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetDependencies(marketID)
}

func (vault *PlasmaVault) ActiveSelectors() ([]Selector, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.ActiveSelectors()
}

func (vault *PlasmaVault) GetPreHookImplementation(selector Selector) (ids.ShortID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetPreHookImplementation(selector)
}

func (vault *PlasmaVault) GetPreHookSubstrates(impl ids.ShortID, selector Selector) ([]ids.ID, error) {
	vault.lock.RLock()
	defer vault.lock.RUnlock()

	return vault.state.GetPreHookSubstrates(impl, selector)
}

/*
 * Privileged configuration surface
 */

// SetSubstrates replaces a market's substrate allow-list.
func (vault *PlasmaVault) SetSubstrates(caller ids.ShortID, marketID MarketID, substrates []ids.ID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.state.SetSubstrates(marketID, substrates); err != nil {
		vault.state.Abort()
		return err
	}
	log.Debug("substrates replaced", "market", marketID, "count", len(substrates))
	return vault.state.Commit()
}

// AddFuses authorizes adapter modules for dispatch.
func (vault *PlasmaVault) AddFuses(caller ids.ShortID, fuses []ids.ShortID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.state.AddFuses(fuses); err != nil {
		vault.state.Abort()
		return err
	}
	log.Debug("fuses added", "count", len(fuses))
	return vault.state.Commit()
}

// RemoveFuses revokes adapter modules. Removal takes effect immediately for
// the next dispatched action.
func (vault *PlasmaVault) RemoveFuses(caller ids.ShortID, fuses []ids.ShortID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.state.RemoveFuses(fuses); err != nil {
		vault.state.Abort()
		return err
	}
	log.Debug("fuses removed", "count", len(fuses))
	return vault.state.Commit()
}

// SetBalanceFuse binds a market's balance fuse. Clearing the binding (fuse =
// ids.ShortEmpty) also retires the market's ledger entry: its last value is
// subtracted from total assets so a removed fuse can never strand stale
// value in share pricing.
func (vault *PlasmaVault) SetBalanceFuse(caller ids.ShortID, marketID MarketID, fuse ids.ShortID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.setBalanceFuse(marketID, fuse); err != nil {
		vault.state.Abort()
		return err
	}
	return vault.state.Commit()
}

func (vault *PlasmaVault) setBalanceFuse(marketID MarketID, fuse ids.ShortID) error {
	if err := vault.state.SetBalanceFuse(marketID, fuse); err != nil {
		return err
	}
	if fuse != ids.ShortEmpty {
		log.Debug("balance fuse bound", "market", marketID, "fuse", fuse)
		return nil
	}

	lastValue, err := vault.state.GetMarketBalance(marketID)
	if err != nil {
		return err
	}
	if lastValue == 0 {
		return nil
	}
	if err := vault.state.PutMarketBalance(marketID, 0); err != nil {
		return err
	}
	log.Debug("balance fuse cleared", "market", marketID, "retiredValue", lastValue)
	return vault.applyDelta(Delta{Removed: lastValue})
}

// UpdateDependencyGraph replaces dependency rows for the given markets.
func (vault *PlasmaVault) UpdateDependencyGraph(caller ids.ShortID, marketIDs []MarketID, dependencies [][]MarketID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.state.UpdateDependencyGraph(marketIDs, dependencies); err != nil {
		vault.state.Abort()
		return err
	}
	return vault.state.Commit()
}

// SetPreHookImplementations rebinds vault entry-point hooks.
func (vault *PlasmaVault) SetPreHookImplementations(caller ids.ShortID, selectors []Selector, impls []ids.ShortID, substrates [][]ids.ID) error {
	if err := vault.requireRole(caller, RoleFuseManager); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if err := vault.state.SetPreHookImplementations(selectors, impls, substrates); err != nil {
		vault.state.Abort()
		return err
	}
	return vault.state.Commit()
}

/*
 * Share accounting
 */

// Deposit credits [assets] to the vault and mints shares at the current
// share price (1:1 on an empty vault). Moving the underlying tokens is the
// caller's concern; the vault only keeps the books.
func (vault *PlasmaVault) Deposit(assets uint64) (uint64, error) {
	if assets == 0 {
		return 0, errZeroAmount
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	totalAssets, err := vault.state.GetTotalAssets()
	if err != nil {
		return 0, err
	}
	totalSupply, err := vault.state.GetTotalSupply()
	if err != nil {
		return 0, err
	}

	var shares uint64
	switch {
	case totalSupply == 0:
		shares = assets
	case totalAssets == 0:
		return 0, errVaultInsolvent
	default:
		scaled, err := safemath.Mul64(assets, totalSupply)
		if err != nil {
			return 0, err
		}
		shares = scaled / totalAssets
	}

	newAssets, err := safemath.Add64(totalAssets, assets)
	if err != nil {
		return 0, err
	}
	newSupply, err := safemath.Add64(totalSupply, shares)
	if err != nil {
		return 0, err
	}

	if err := vault.state.SetTotalAssets(newAssets); err != nil {
		vault.state.Abort()
		return 0, err
	}
	if err := vault.state.SetTotalSupply(newSupply); err != nil {
		vault.state.Abort()
		return 0, err
	}
	if err := vault.state.Commit(); err != nil {
		vault.state.Abort()
		return 0, err
	}
	log.Info("deposit", "assets", assets, "shares", shares)
	return shares, nil
}

// Withdraw burns [shares] and debits the proportional assets from the
// vault's books.
func (vault *PlasmaVault) Withdraw(shares uint64) (uint64, error) {
	if shares == 0 {
		return 0, errZeroAmount
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	totalAssets, err := vault.state.GetTotalAssets()
	if err != nil {
		return 0, err
	}
	totalSupply, err := vault.state.GetTotalSupply()
	if err != nil {
		return 0, err
	}
	if shares > totalSupply {
		return 0, fmt.Errorf("%w: %d > %d", errInsufficientShares, shares, totalSupply)
	}

	scaled, err := safemath.Mul64(shares, totalAssets)
	if err != nil {
		return 0, err
	}
	assets := scaled / totalSupply

	newAssets, err := safemath.Sub64(totalAssets, assets)
	if err != nil {
		return 0, err
	}

	if err := vault.state.SetTotalAssets(newAssets); err != nil {
		vault.state.Abort()
		return 0, err
	}
	if err := vault.state.SetTotalSupply(totalSupply - shares); err != nil {
		vault.state.Abort()
		return 0, err
	}
	if err := vault.state.Commit(); err != nil {
		vault.state.Abort()
		return 0, err
	}
	log.Info("withdraw", "shares", shares, "assets", assets)
	return assets, nil
}

/*
 * Dispatch
 */

// Execute runs an ordered batch of fuse actions, reconciles every market the
// batch touched, and applies the net delta to total assets. The batch is
// all-or-nothing: any failure discards every pending write and leaves the
// vault's observable state unchanged.
func (vault *PlasmaVault) Execute(caller ids.ShortID, actions []Action) error {
	if err := vault.requireRole(caller, RoleAtomist); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	fuseCtx := &FuseContext{state: vault.state, oracle: vault.oracle}

	touched, err := vault.dispatcher.run(fuseCtx, actions)
	if err != nil {
		vault.state.Abort()
		return err
	}

	delta, err := vault.aggregator.Reconcile(touched)
	if err != nil {
		vault.state.Abort()
		return err
	}

	if err := vault.applyDelta(delta); err != nil {
		vault.state.Abort()
		return err
	}

	if err := vault.state.Commit(); err != nil {
		vault.state.Abort()
		return err
	}
	log.Info("batch executed",
		"actions", len(actions),
		"marketsTouched", len(touched),
		"added", delta.Added,
		"removed", delta.Removed,
	)
	return nil
}

// Reconcile refreshes the given markets (or every active market when none
// are given) outside of a dispatch batch.
func (vault *PlasmaVault) Reconcile(caller ids.ShortID, marketIDs []MarketID) error {
	if err := vault.requireRole(caller, RoleAtomist); err != nil {
		return err
	}

	vault.lock.Lock()
	defer vault.lock.Unlock()

	if len(marketIDs) == 0 {
		active, err := vault.state.ActiveMarkets()
		if err != nil {
			return err
		}
		marketIDs = active
	}

	touched := make(map[MarketID]struct{}, len(marketIDs))
	for _, marketID := range marketIDs {
		touched[marketID] = struct{}{}
	}

	delta, err := vault.aggregator.Reconcile(touched)
	if err != nil {
		vault.state.Abort()
		return err
	}
	if err := vault.applyDelta(delta); err != nil {
		vault.state.Abort()
		return err
	}
	return vault.state.Commit()
}

func (vault *PlasmaVault) applyDelta(delta Delta) error {
	if delta.IsZero() {
		return nil
	}
	totalAssets, err := vault.state.GetTotalAssets()
	if err != nil {
		return err
	}
	newTotal, err := delta.Apply(totalAssets)
	if err != nil {
		return err
	}
	return vault.state.SetTotalAssets(newTotal)
}

func (vault *PlasmaVault) requireRole(caller ids.ShortID, role Role) error {
	if vault.gate.Can(caller, role) {
		return nil
	}
	return fmt.Errorf("%w: %s", errUnauthorized, caller)
}
