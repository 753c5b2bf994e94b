package client

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/ava-labs/avalanchego/utils/rpc"

	cjson "github.com/ava-labs/avalanchego/utils/json"

	"github.com/plasma-labs/plasmavault/plasmavault"
)

// Action is one dispatch step submitted through the client. Data is the
// opaque calldata the target fuse decodes itself.
type Action struct {
	Fuse ids.ShortID
	Op   string
	Data []byte
}

// Client defines plasmavault client operations.
type Client interface {
	// TotalAssets fetches the vault's total assets in underlying units
	TotalAssets(ctx context.Context) (uint64, error)

	// TotalAssetsInMarket fetches one market's last reconciled value
	TotalAssetsInMarket(ctx context.Context, marketID uint64) (uint64, error)

	// ActiveMarkets lists markets with nonzero ledger entries
	ActiveMarkets(ctx context.Context) ([]uint64, error)

	// GetSubstrates fetches a market's substrate allow-list
	GetSubstrates(ctx context.Context, marketID uint64) ([]ids.ID, error)

	// SetSubstrates replaces a market's substrate allow-list
	SetSubstrates(ctx context.Context, caller ids.ShortID, marketID uint64, substrates []ids.ID) (bool, error)

	// AddFuses authorizes adapter modules for dispatch
	AddFuses(ctx context.Context, caller ids.ShortID, fuses []ids.ShortID) (bool, error)

	// RemoveFuses revokes adapter modules
	RemoveFuses(ctx context.Context, caller ids.ShortID, fuses []ids.ShortID) (bool, error)

	// SetBalanceFuse binds a market's balance fuse
	SetBalanceFuse(ctx context.Context, caller ids.ShortID, marketID uint64, fuse ids.ShortID) (bool, error)

	// UpdateDependencyGraph replaces whole dependency rows
	UpdateDependencyGraph(ctx context.Context, caller ids.ShortID, marketIDs []uint64, dependencies [][]uint64) (bool, error)

	// Execute submits an allocation batch
	Execute(ctx context.Context, caller ids.ShortID, actions []Action) (bool, error)

	// Deposit mints shares for deposited assets
	Deposit(ctx context.Context, assets uint64) (uint64, error)

	// Withdraw burns shares for assets
	Withdraw(ctx context.Context, shares uint64) (uint64, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri, "", "plasmavault")
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) TotalAssets(ctx context.Context) (uint64, error) {
	resp := new(plasmavault.AmountReply)
	err := cli.req.SendRequest(ctx,
		"totalAssets",
		&plasmavault.TotalAssetsArgs{},
		resp,
	)
	return uint64(resp.Amount), err
}

func (cli *client) TotalAssetsInMarket(ctx context.Context, marketID uint64) (uint64, error) {
	resp := new(plasmavault.AmountReply)
	err := cli.req.SendRequest(ctx,
		"totalAssetsInMarket",
		&plasmavault.MarketArgs{MarketID: cjson.Uint64(marketID)},
		resp,
	)
	return uint64(resp.Amount), err
}

func (cli *client) ActiveMarkets(ctx context.Context) ([]uint64, error) {
	resp := new(plasmavault.ActiveMarketsReply)
	err := cli.req.SendRequest(ctx,
		"activeMarkets",
		&plasmavault.TotalAssetsArgs{},
		resp,
	)
	if err != nil {
		return nil, err
	}
	markets := make([]uint64, len(resp.MarketIDs))
	for i, marketID := range resp.MarketIDs {
		markets[i] = uint64(marketID)
	}
	return markets, nil
}

func (cli *client) GetSubstrates(ctx context.Context, marketID uint64) ([]ids.ID, error) {
	resp := new(plasmavault.SubstratesReply)
	err := cli.req.SendRequest(ctx,
		"getSubstrates",
		&plasmavault.MarketArgs{MarketID: cjson.Uint64(marketID)},
		resp,
	)
	return resp.Substrates, err
}

func (cli *client) SetSubstrates(ctx context.Context, caller ids.ShortID, marketID uint64, substrates []ids.ID) (bool, error) {
	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx,
		"setSubstrates",
		&plasmavault.SetSubstratesArgs{
			Caller:     caller,
			MarketID:   cjson.Uint64(marketID),
			Substrates: substrates,
		},
		resp,
	)
	return resp.Success, err
}

func (cli *client) AddFuses(ctx context.Context, caller ids.ShortID, fuses []ids.ShortID) (bool, error) {
	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx,
		"addFuses",
		&plasmavault.FusesArgs{Caller: caller, Fuses: fuses},
		resp,
	)
	return resp.Success, err
}

func (cli *client) RemoveFuses(ctx context.Context, caller ids.ShortID, fuses []ids.ShortID) (bool, error) {
	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx,
		"removeFuses",
		&plasmavault.FusesArgs{Caller: caller, Fuses: fuses},
		resp,
	)
	return resp.Success, err
}

func (cli *client) SetBalanceFuse(ctx context.Context, caller ids.ShortID, marketID uint64, fuse ids.ShortID) (bool, error) {
	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx,
		"setBalanceFuse",
		&plasmavault.SetBalanceFuseArgs{
			Caller:   caller,
			MarketID: cjson.Uint64(marketID),
			Fuse:     fuse,
		},
		resp,
	)
	return resp.Success, err
}

func (cli *client) UpdateDependencyGraph(ctx context.Context, caller ids.ShortID, marketIDs []uint64, dependencies [][]uint64) (bool, error) {
	args := &plasmavault.UpdateDependencyGraphArgs{
		Caller:       caller,
		MarketIDs:    make([]cjson.Uint64, len(marketIDs)),
		Dependencies: make([][]cjson.Uint64, len(dependencies)),
	}
	for i, marketID := range marketIDs {
		args.MarketIDs[i] = cjson.Uint64(marketID)
	}
	for i, row := range dependencies {
		args.Dependencies[i] = make([]cjson.Uint64, len(row))
		for j, marketID := range row {
			args.Dependencies[i][j] = cjson.Uint64(marketID)
		}
	}

	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx, "updateDependencyGraph", args, resp)
	return resp.Success, err
}

func (cli *client) Execute(ctx context.Context, caller ids.ShortID, actions []Action) (bool, error) {
	args := &plasmavault.ExecuteArgs{
		Caller:  caller,
		Actions: make([]plasmavault.ActionArgs, len(actions)),
	}
	for i, action := range actions {
		data, err := formatting.EncodeWithChecksum(formatting.Hex, action.Data)
		if err != nil {
			return false, err
		}
		args.Actions[i] = plasmavault.ActionArgs{
			Fuse: action.Fuse,
			Op:   action.Op,
			Data: data,
		}
	}

	resp := new(plasmavault.SuccessReply)
	err := cli.req.SendRequest(ctx, "execute", args, resp)
	return resp.Success, err
}

func (cli *client) Deposit(ctx context.Context, assets uint64) (uint64, error) {
	resp := new(plasmavault.AmountReply)
	err := cli.req.SendRequest(ctx,
		"deposit",
		&plasmavault.DepositArgs{Assets: cjson.Uint64(assets)},
		resp,
	)
	return uint64(resp.Amount), err
}

func (cli *client) Withdraw(ctx context.Context, shares uint64) (uint64, error) {
	resp := new(plasmavault.AmountReply)
	err := cli.req.SendRequest(ctx,
		"withdraw",
		&plasmavault.WithdrawArgs{Shares: cjson.Uint64(shares)},
		resp,
	)
	return uint64(resp.Amount), err
}
