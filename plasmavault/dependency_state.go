// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/database"
)

var _ DependencyState = &dependencyState{}

// DependencyState is the directed market dependency graph: marketID -> the
// set of markets whose balances must also be recomputed whenever this
// market's balance changes. Rows are replaced whole, never diffed, mirroring
// the substrate registry's replace-not-diff policy. The graph is not required
// to be acyclic; the aggregator's visited-set bounds expansion instead.
type DependencyState interface {
	// GetDependencies returns the market's dependents in stored order.
	GetDependencies(marketID MarketID) ([]MarketID, error)

	// UpdateDependencyGraph replaces one full row per entry of [marketIDs].
	// A length mismatch between the two arguments fails before any mutation.
	// An empty row removes the market from the graph.
	UpdateDependencyGraph(marketIDs []MarketID, dependencies [][]MarketID) error
}

type dependencyState struct {
	dependencyDB database.Database
}

func NewDependencyState(db database.Database) DependencyState {
	return &dependencyState{dependencyDB: db}
}

func (s *dependencyState) GetDependencies(marketID MarketID) ([]MarketID, error) {
	rowBytes, err := s.dependencyDB.Get(marketKey(marketID))
	if err == database.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := dependencyRow{}
	if _, err := Codec.Unmarshal(rowBytes, &row); err != nil {
		return nil, err
	}
	return row.Dependencies, nil
}

func (s *dependencyState) UpdateDependencyGraph(marketIDs []MarketID, dependencies [][]MarketID) error {
	if len(marketIDs) != len(dependencies) {
		return errInvalidArrayLength
	}

	for i, marketID := range marketIDs {
		if len(dependencies[i]) == 0 {
			if err := s.dependencyDB.Delete(marketKey(marketID)); err != nil {
				return err
			}
			continue
		}

		rowBytes, err := Codec.Marshal(CodecVersion, &dependencyRow{Dependencies: dependencies[i]})
		if err != nil {
			return err
		}
		if err := s.dependencyDB.Put(marketKey(marketID), rowBytes); err != nil {
			return err
		}
	}
	return nil
}
