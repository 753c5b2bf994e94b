// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/database"
)

const (
	IsInitializedKey byte = iota
	TotalAssetsKey
	TotalSupplyKey
)

var (
	isInitializedKey = []byte{IsInitializedKey}
	totalAssetsKey   = []byte{TotalAssetsKey}
	totalSupplyKey   = []byte{TotalSupplyKey}

	_ VaultState = (*vaultState)(nil)
)

// VaultState is a thin wrapper around a database holding the vault's
// singletons: the initialization flag, the total-assets figure the ledger
// reconciles into, and the share supply.
type VaultState interface {
	IsInitialized() (bool, error)
	SetInitialized() error

	GetTotalAssets() (uint64, error)
	SetTotalAssets(amount uint64) error

	GetTotalSupply() (uint64, error)
	SetTotalSupply(amount uint64) error
}

type vaultState struct {
	singletonDB database.Database
}

func NewVaultState(db database.Database) VaultState {
	return &vaultState{
		singletonDB: db,
	}
}

func (s *vaultState) IsInitialized() (bool, error) {
	return s.singletonDB.Has(isInitializedKey)
}

func (s *vaultState) SetInitialized() error {
	return s.singletonDB.Put(isInitializedKey, nil)
}

func (s *vaultState) GetTotalAssets() (uint64, error) {
	return s.getUint64(totalAssetsKey)
}

func (s *vaultState) SetTotalAssets(amount uint64) error {
	return s.singletonDB.Put(totalAssetsKey, marshalUint64(amount))
}

func (s *vaultState) GetTotalSupply() (uint64, error) {
	return s.getUint64(totalSupplyKey)
}

func (s *vaultState) SetTotalSupply(amount uint64) error {
	return s.singletonDB.Put(totalSupplyKey, marshalUint64(amount))
}

func (s *vaultState) getUint64(key []byte) (uint64, error) {
	amountBytes, err := s.singletonDB.Get(key)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return unmarshalUint64(amountBytes)
}
