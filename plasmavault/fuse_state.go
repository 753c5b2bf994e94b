// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
)

var (
	supportedFusePrefix = []byte("supported")
	balanceFusePrefix   = []byte("balance")

	_ FuseState = &fuseState{}
)

// FuseState is the allow-list of adapter-module addresses authorized to
// execute on behalf of the vault, plus the per-market binding of the single
// balance fuse allowed to report that market's value.
type FuseState interface {
	IsFuseSupported(fuse ids.ShortID) (bool, error)

	// AddFuses and RemoveFuses are idempotent: adding an already-present
	// fuse or removing an absent one is a no-op.
	AddFuses(fuses []ids.ShortID) error
	RemoveFuses(fuses []ids.ShortID) error

	// GetBalanceFuse returns ids.ShortEmpty when the market has no balance
	// fuse bound.
	GetBalanceFuse(marketID MarketID) (ids.ShortID, error)

	// SetBalanceFuse binds [fuse] as the market's only balance fuse,
	// overwriting any previous binding. Binding ids.ShortEmpty clears it.
	SetBalanceFuse(marketID MarketID, fuse ids.ShortID) error
}

type fuseState struct {
	supportedDB database.Database
	balanceDB   database.Database
}

func NewFuseState(db database.Database) FuseState {
	return &fuseState{
		supportedDB: prefixdb.New(supportedFusePrefix, db),
		balanceDB:   prefixdb.New(balanceFusePrefix, db),
	}
}

func (s *fuseState) IsFuseSupported(fuse ids.ShortID) (bool, error) {
	return s.supportedDB.Has(fuse[:])
}

func (s *fuseState) AddFuses(fuses []ids.ShortID) error {
	for _, fuse := range fuses {
		if err := s.supportedDB.Put(fuse[:], nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *fuseState) RemoveFuses(fuses []ids.ShortID) error {
	for _, fuse := range fuses {
		if err := s.supportedDB.Delete(fuse[:]); err != nil {
			return err
		}
	}
	return nil
}

func (s *fuseState) GetBalanceFuse(marketID MarketID) (ids.ShortID, error) {
	fuseBytes, err := s.balanceDB.Get(marketKey(marketID))
	if err == database.ErrNotFound {
		return ids.ShortEmpty, nil
	}
	if err != nil {
		return ids.ShortEmpty, err
	}
	return ids.ToShortID(fuseBytes)
}

func (s *fuseState) SetBalanceFuse(marketID MarketID, fuse ids.ShortID) error {
	if fuse == ids.ShortEmpty {
		return s.balanceDB.Delete(marketKey(marketID))
	}
	return s.balanceDB.Put(marketKey(marketID), fuse[:])
}
