// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/rpc/v2"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"

	cjson "github.com/ava-labs/avalanchego/utils/json"
)

var errInvalidOp = errors.New("op must be \"enter\" or \"exit\"")

// Service is the JSON-RPC API service for a vault. Privileged methods carry
// the caller's address in their args; the vault's role gate decides whether
// the call is allowed.
type Service struct{ vault *PlasmaVault }

// NewHandler returns an http.Handler serving the vault API under the
// "plasmavault" namespace.
func NewHandler(vault *PlasmaVault) (http.Handler, error) {
	newServer := rpc.NewServer()
	codec := cjson.NewCodec()
	newServer.RegisterCodec(codec, "application/json")
	newServer.RegisterCodec(codec, "application/json;charset=UTF-8")
	return newServer, newServer.RegisterService(&Service{vault: vault}, Name)
}

// SuccessReply indicates the call mutated state.
type SuccessReply struct {
	Success bool `json:"success"`
}

// AmountReply carries a single underlying-units amount.
type AmountReply struct {
	Amount cjson.Uint64 `json:"amount"`
}

// TotalAssetsArgs ...
type TotalAssetsArgs struct{}

// TotalAssets returns the vault's total assets in underlying units.
func (s *Service) TotalAssets(_ *http.Request, _ *TotalAssetsArgs, reply *AmountReply) error {
	amount, err := s.vault.TotalAssets()
	reply.Amount = cjson.Uint64(amount)
	return err
}

// TotalSupply returns the outstanding share supply.
func (s *Service) TotalSupply(_ *http.Request, _ *TotalAssetsArgs, reply *AmountReply) error {
	amount, err := s.vault.TotalSupply()
	reply.Amount = cjson.Uint64(amount)
	return err
}

// MarketArgs is an API request whose only argument is a market ID.
type MarketArgs struct {
	MarketID cjson.Uint64 `json:"marketID"`
}

// TotalAssetsInMarket returns the market's last reconciled value.
func (s *Service) TotalAssetsInMarket(_ *http.Request, args *MarketArgs, reply *AmountReply) error {
	amount, err := s.vault.TotalAssetsInMarket(MarketID(args.MarketID))
	reply.Amount = cjson.Uint64(amount)
	return err
}

// ActiveMarketsReply lists the markets with nonzero ledger entries.
type ActiveMarketsReply struct {
	MarketIDs []cjson.Uint64 `json:"marketIDs"`
}

func (s *Service) ActiveMarkets(_ *http.Request, _ *TotalAssetsArgs, reply *ActiveMarketsReply) error {
	markets, err := s.vault.ActiveMarkets()
	if err != nil {
		return err
	}
	reply.MarketIDs = make([]cjson.Uint64, len(markets))
	for i, marketID := range markets {
		reply.MarketIDs[i] = cjson.Uint64(marketID)
	}
	return nil
}

// SubstratesReply ...
type SubstratesReply struct {
	Substrates []ids.ID `json:"substrates"`
}

func (s *Service) GetSubstrates(_ *http.Request, args *MarketArgs, reply *SubstratesReply) error {
	substrates, err := s.vault.GetSubstrates(MarketID(args.MarketID))
	reply.Substrates = substrates
	return err
}

// SetSubstratesArgs ...
type SetSubstratesArgs struct {
	Caller     ids.ShortID  `json:"caller"`
	MarketID   cjson.Uint64 `json:"marketID"`
	Substrates []ids.ID     `json:"substrates"`
}

func (s *Service) SetSubstrates(_ *http.Request, args *SetSubstratesArgs, reply *SuccessReply) error {
	if err := s.vault.SetSubstrates(args.Caller, MarketID(args.MarketID), args.Substrates); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// FusesArgs ...
type FusesArgs struct {
	Caller ids.ShortID   `json:"caller"`
	Fuses  []ids.ShortID `json:"fuses"`
}

func (s *Service) AddFuses(_ *http.Request, args *FusesArgs, reply *SuccessReply) error {
	if err := s.vault.AddFuses(args.Caller, args.Fuses); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

func (s *Service) RemoveFuses(_ *http.Request, args *FusesArgs, reply *SuccessReply) error {
	if err := s.vault.RemoveFuses(args.Caller, args.Fuses); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// BalanceFuseReply ...
type BalanceFuseReply struct {
	Fuse ids.ShortID `json:"fuse"`
}

func (s *Service) GetBalanceFuse(_ *http.Request, args *MarketArgs, reply *BalanceFuseReply) error {
	fuse, err := s.vault.GetBalanceFuse(MarketID(args.MarketID))
	reply.Fuse = fuse
	return err
}

// SetBalanceFuseArgs ...
type SetBalanceFuseArgs struct {
	Caller   ids.ShortID  `json:"caller"`
	MarketID cjson.Uint64 `json:"marketID"`
	Fuse     ids.ShortID  `json:"fuse"`
}

func (s *Service) SetBalanceFuse(_ *http.Request, args *SetBalanceFuseArgs, reply *SuccessReply) error {
	if err := s.vault.SetBalanceFuse(args.Caller, MarketID(args.MarketID), args.Fuse); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// DependenciesReply ...
type DependenciesReply struct {
	MarketIDs []cjson.Uint64 `json:"marketIDs"`
}

func (s *Service) GetDependencies(_ *http.Request, args *MarketArgs, reply *DependenciesReply) error {
	dependents, err := s.vault.GetDependencies(MarketID(args.MarketID))
	if err != nil {
		return err
	}
	reply.MarketIDs = make([]cjson.Uint64, len(dependents))
	for i, marketID := range dependents {
		reply.MarketIDs[i] = cjson.Uint64(marketID)
	}
	return nil
}

// UpdateDependencyGraphArgs carries one whole dependency row per market.
type UpdateDependencyGraphArgs struct {
	Caller       ids.ShortID      `json:"caller"`
	MarketIDs    []cjson.Uint64   `json:"marketIDs"`
	Dependencies [][]cjson.Uint64 `json:"dependencies"`
}

func (s *Service) UpdateDependencyGraph(_ *http.Request, args *UpdateDependencyGraphArgs, reply *SuccessReply) error {
	marketIDs := make([]MarketID, len(args.MarketIDs))
	for i, marketID := range args.MarketIDs {
		marketIDs[i] = MarketID(marketID)
	}
	dependencies := make([][]MarketID, len(args.Dependencies))
	for i, row := range args.Dependencies {
		dependencies[i] = make([]MarketID, len(row))
		for j, marketID := range row {
			dependencies[i][j] = MarketID(marketID)
		}
	}

	if err := s.vault.UpdateDependencyGraph(args.Caller, marketIDs, dependencies); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// ActionArgs is the wire form of one dispatch action. Data is hex-encoded
// opaque calldata the fuse decodes itself.
type ActionArgs struct {
	Fuse ids.ShortID `json:"fuse"`
	Op   string      `json:"op"`
	Data string      `json:"data"`
}

// ExecuteArgs ...
type ExecuteArgs struct {
	Caller  ids.ShortID  `json:"caller"`
	Actions []ActionArgs `json:"actions"`
}

// Execute submits an allocation batch.
func (s *Service) Execute(_ *http.Request, args *ExecuteArgs, reply *SuccessReply) error {
	actions := make([]Action, len(args.Actions))
	for i, actionArgs := range args.Actions {
		var op Op
		switch actionArgs.Op {
		case "enter":
			op = OpEnter
		case "exit":
			op = OpExit
		default:
			return fmt.Errorf("%w: %q", errInvalidOp, actionArgs.Op)
		}

		data, err := formatting.Decode(formatting.Hex, actionArgs.Data)
		if err != nil {
			return fmt.Errorf("couldn't decode action %d data: %w", i, err)
		}
		actions[i] = Action{Fuse: actionArgs.Fuse, Op: op, Data: data}
	}

	if err := s.vault.Execute(args.Caller, actions); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// ReconcileArgs ...
type ReconcileArgs struct {
	Caller    ids.ShortID    `json:"caller"`
	MarketIDs []cjson.Uint64 `json:"marketIDs"`
}

// Reconcile refreshes balances outside of a dispatch batch.
func (s *Service) Reconcile(_ *http.Request, args *ReconcileArgs, reply *SuccessReply) error {
	marketIDs := make([]MarketID, len(args.MarketIDs))
	for i, marketID := range args.MarketIDs {
		marketIDs[i] = MarketID(marketID)
	}
	if err := s.vault.Reconcile(args.Caller, marketIDs); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// DepositArgs ...
type DepositArgs struct {
	Assets cjson.Uint64 `json:"assets"`
}

// Deposit mints shares for deposited assets.
func (s *Service) Deposit(_ *http.Request, args *DepositArgs, reply *AmountReply) error {
	shares, err := s.vault.Deposit(uint64(args.Assets))
	reply.Amount = cjson.Uint64(shares)
	return err
}

// WithdrawArgs ...
type WithdrawArgs struct {
	Shares cjson.Uint64 `json:"shares"`
}

// Withdraw burns shares for assets.
func (s *Service) Withdraw(_ *http.Request, args *WithdrawArgs, reply *AmountReply) error {
	assets, err := s.vault.Withdraw(uint64(args.Shares))
	reply.Amount = cjson.Uint64(assets)
	return err
}

// SetPreHooksArgs carries parallel arrays, one entry per selector.
// Selectors are hex-encoded 4-byte values.
type SetPreHooksArgs struct {
	Caller          ids.ShortID   `json:"caller"`
	Selectors       []string      `json:"selectors"`
	Implementations []ids.ShortID `json:"implementations"`
	Substrates      [][]ids.ID    `json:"substrates"`
}

func (s *Service) SetPreHookImplementations(_ *http.Request, args *SetPreHooksArgs, reply *SuccessReply) error {
	selectors := make([]Selector, len(args.Selectors))
	for i, selectorHex := range args.Selectors {
		raw, err := formatting.Decode(formatting.Hex, selectorHex)
		if err != nil {
			return fmt.Errorf("couldn't decode selector %d: %w", i, err)
		}
		if len(raw) != selectorLen {
			return fmt.Errorf("%w: %q", errInvalidSelector, selectorHex)
		}
		copy(selectors[i][:], raw)
	}

	if err := s.vault.SetPreHookImplementations(args.Caller, selectors, args.Implementations, args.Substrates); err != nil {
		return err
	}
	reply.Success = true
	return nil
}

// ActiveSelectorsReply lists hex-encoded selectors that have hooks bound.
type ActiveSelectorsReply struct {
	Selectors []string `json:"selectors"`
}

func (s *Service) ActiveSelectors(_ *http.Request, _ *TotalAssetsArgs, reply *ActiveSelectorsReply) error {
	selectors, err := s.vault.ActiveSelectors()
	if err != nil {
		return err
	}
	reply.Selectors = make([]string, len(selectors))
	for i, selector := range selectors {
		encoded, err := formatting.EncodeWithChecksum(formatting.Hex, selector[:])
		if err != nil {
			return err
		}
		reply.Selectors[i] = encoded
	}
	return nil
}
