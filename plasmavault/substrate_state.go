// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
)

const (
	substrateRowCacheSize = 2048
)

var (
	substrateRowPrefix    = []byte("row")
	substrateMemberPrefix = []byte("member")

	_ SubstrateState = &substrateState{}
)

// SubstrateState is the per-market allow-list of substrates (assets, pools,
// protocol-specific indexes) the market's fuses may act upon. The canonical
// mutation is whole-set replacement; there is no incremental add/remove API.
type SubstrateState interface {
	// GetSubstrates returns the market's allow-list in its stored order.
	// A market with no configured substrates returns an empty list.
	GetSubstrates(marketID MarketID) ([]ids.ID, error)

	// SetSubstrates replaces the market's entire allow-list. Membership
	// entries for the previous set are cleared before the new set is
	// installed so no stale reverse-lookup entries survive.
	SetSubstrates(marketID MarketID, substrates []ids.ID) error

	// IsSubstrateAllowed is the O(1) reverse lookup used on the dispatch
	// hot path.
	IsSubstrateAllowed(marketID MarketID, substrate ids.ID) (bool, error)

	ClearSubstrateCache()
}

type substrateState struct {
	rowCache cache.Cacher // MarketID -> []ids.ID

	rowDB    database.Database
	memberDB database.Database
}

func NewSubstrateState(db database.Database) SubstrateState {
	return &substrateState{
		rowCache: &cache.LRU{Size: substrateRowCacheSize},
		rowDB:    prefixdb.New(substrateRowPrefix, db),
		memberDB: prefixdb.New(substrateMemberPrefix, db),
	}
}

func (s *substrateState) GetSubstrates(marketID MarketID) ([]ids.ID, error) {
	if rowIntf, cached := s.rowCache.Get(marketID); cached {
		return rowIntf.([]ids.ID), nil
	}

	rowBytes, err := s.rowDB.Get(marketKey(marketID))
	if err == database.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	row := substrateRow{}
	if _, err := Codec.Unmarshal(rowBytes, &row); err != nil {
		return nil, err
	}

	s.rowCache.Put(marketID, row.Substrates)
	return row.Substrates, nil
}

func (s *substrateState) SetSubstrates(marketID MarketID, substrates []ids.ID) error {
	previous, err := s.GetSubstrates(marketID)
	if err != nil {
		return err
	}

	// Clear the old set's membership flags before installing the new set so
	// an overwrite can never leave stale reverse-lookup entries.
	for _, substrate := range previous {
		if err := s.memberDB.Delete(marketSubstrateKey(marketID, substrate)); err != nil {
			return err
		}
	}

	// The stored row is an ordered-unique set. Duplicates in the input keep
	// their first position.
	unique := make([]ids.ID, 0, len(substrates))
	seen := make(map[ids.ID]struct{}, len(substrates))
	for _, substrate := range substrates {
		if _, dup := seen[substrate]; dup {
			continue
		}
		seen[substrate] = struct{}{}
		unique = append(unique, substrate)
	}

	if len(unique) == 0 {
		if err := s.rowDB.Delete(marketKey(marketID)); err != nil {
			return err
		}
	} else {
		rowBytes, err := Codec.Marshal(CodecVersion, &substrateRow{Substrates: unique})
		if err != nil {
			return err
		}
		if err := s.rowDB.Put(marketKey(marketID), rowBytes); err != nil {
			return err
		}
	}

	for _, substrate := range unique {
		if err := s.memberDB.Put(marketSubstrateKey(marketID, substrate), nil); err != nil {
			return err
		}
	}

	s.rowCache.Put(marketID, unique)
	return nil
}

func (s *substrateState) IsSubstrateAllowed(marketID MarketID, substrate ids.ID) (bool, error) {
	return s.memberDB.Has(marketSubstrateKey(marketID, substrate))
}

func (s *substrateState) ClearSubstrateCache() {
	s.rowCache.Flush()
}
