// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
)

var (
	// These are prefixes for db keys.
	// It's important to set different prefixes for each separate database objects.
	singletonStatePrefix  = []byte("singleton")
	substrateStatePrefix  = []byte("substrate")
	fuseStatePrefix       = []byte("fuse")
	dependencyStatePrefix = []byte("dependency")
	ledgerStatePrefix     = []byte("ledger")
	preHookStatePrefix    = []byte("prehook")

	_ State = &state{}
)

// State is the vault's full persistent state: the singletons, the substrate
// and fuse registries, the dependency graph, the market balance ledger, and
// the pre-hook binding table. All writes land in a version layer; a batch is
// made visible with Commit and discarded with Abort, which is what gives the
// dispatcher its all-or-nothing execution sandbox.
type State interface {
	VaultState
	SubstrateState
	FuseState
	DependencyState
	LedgerState
	PreHookState

	Commit() error
	Abort()
	Close() error
}

type state struct {
	VaultState
	SubstrateState
	FuseState
	DependencyState
	LedgerState
	PreHookState

	baseDB *versiondb.Database
}

func NewState(db database.Database) State {
	// create a new baseDB
	baseDB := versiondb.New(db)

	// create prefixed sub-databases from baseDB
	singletonDB := prefixdb.New(singletonStatePrefix, baseDB)
	substrateDB := prefixdb.New(substrateStatePrefix, baseDB)
	fuseDB := prefixdb.New(fuseStatePrefix, baseDB)
	dependencyDB := prefixdb.New(dependencyStatePrefix, baseDB)
	ledgerDB := prefixdb.New(ledgerStatePrefix, baseDB)
	preHookDB := prefixdb.New(preHookStatePrefix, baseDB)

	// return state with created sub state components
	return &state{
		VaultState:      NewVaultState(singletonDB),
		SubstrateState:  NewSubstrateState(substrateDB),
		FuseState:       NewFuseState(fuseDB),
		DependencyState: NewDependencyState(dependencyDB),
		LedgerState:     NewLedgerState(ledgerDB),
		PreHookState:    NewPreHookState(preHookDB),
		baseDB:          baseDB,
	}
}

// Commit commits pending operations to baseDB
func (s *state) Commit() error {
	return s.baseDB.Commit()
}

// Abort discards pending operations and drops any cache entries written by
// the aborted batch.
func (s *state) Abort() {
	s.baseDB.Abort()
	s.ClearSubstrateCache()
	s.ClearLedgerCache()
}

// Close closes the underlying base database
func (s *state) Close() error {
	return s.baseDB.Close()
}
