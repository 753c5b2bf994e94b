// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
)

const (
	balanceCacheSize = 4096
)

var (
	ledgerBalancePrefix = []byte("value")
	ledgerListPrefix    = []byte("list")
	ledgerIndexPrefix   = []byte("index")

	activeCountKey = []byte("activeCount")

	_ LedgerState = &ledgerState{}
)

// LedgerState is the market balance ledger: the last-computed value of every
// market in underlying-asset units, plus a swap-remove list of the markets
// that are currently active (nonzero value). Only the balance aggregator is
// permitted to write entries; fuses are handed read-only views.
type LedgerState interface {
	// GetMarketBalance returns 0 for a market with no entry.
	GetMarketBalance(marketID MarketID) (uint64, error)

	// PutMarketBalance records the market's last-computed value. A nonzero
	// value activates the market; writing 0 deletes the entry and removes
	// the market from the active list.
	PutMarketBalance(marketID MarketID, value uint64) error

	// IsMarketActive reports whether the market currently holds a nonzero
	// ledger entry.
	IsMarketActive(marketID MarketID) (bool, error)

	// ActiveMarkets returns every active market. Order is the list's
	// internal slot order, which is perturbed by swap-removal.
	ActiveMarkets() ([]MarketID, error)

	ClearLedgerCache()
}

type ledgerState struct {
	balanceCache cache.Cacher // MarketID -> uint64

	ledgerDB  database.Database
	balanceDB database.Database
	listDB    database.Database // slot index -> marketID
	indexDB   database.Database // marketID -> slot index
}

func NewLedgerState(db database.Database) LedgerState {
	return &ledgerState{
		balanceCache: &cache.LRU{Size: balanceCacheSize},
		ledgerDB:     db,
		balanceDB:    prefixdb.New(ledgerBalancePrefix, db),
		listDB:       prefixdb.New(ledgerListPrefix, db),
		indexDB:      prefixdb.New(ledgerIndexPrefix, db),
	}
}

func (s *ledgerState) GetMarketBalance(marketID MarketID) (uint64, error) {
	if valueIntf, cached := s.balanceCache.Get(marketID); cached {
		return valueIntf.(uint64), nil
	}

	valueBytes, err := s.balanceDB.Get(marketKey(marketID))
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	value, err := unmarshalUint64(valueBytes)
	if err != nil {
		return 0, err
	}
	s.balanceCache.Put(marketID, value)
	return value, nil
}

func (s *ledgerState) PutMarketBalance(marketID MarketID, value uint64) error {
	if value == 0 {
		if err := s.balanceDB.Delete(marketKey(marketID)); err != nil {
			return err
		}
		s.balanceCache.Put(marketID, uint64(0))
		return s.deactivate(marketID)
	}

	if err := s.balanceDB.Put(marketKey(marketID), marshalUint64(value)); err != nil {
		return err
	}
	s.balanceCache.Put(marketID, value)
	return s.activate(marketID)
}

func (s *ledgerState) IsMarketActive(marketID MarketID) (bool, error) {
	return s.indexDB.Has(marketKey(marketID))
}

func (s *ledgerState) ActiveMarkets() ([]MarketID, error) {
	count, err := s.activeCount()
	if err != nil {
		return nil, err
	}

	markets := make([]MarketID, 0, count)
	for slot := uint32(0); slot < count; slot++ {
		marketBytes, err := s.listDB.Get(indexKey(slot))
		if err != nil {
			return nil, err
		}
		marketID, err := unmarshalUint64(marketBytes)
		if err != nil {
			return nil, err
		}
		markets = append(markets, MarketID(marketID))
	}
	return markets, nil
}

func (s *ledgerState) ClearLedgerCache() {
	s.balanceCache.Flush()
}

func (s *ledgerState) activeCount() (uint32, error) {
	countBytes, err := s.ledgerDB.Get(activeCountKey)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return unmarshalUint32(countBytes)
}

// activate appends the market to the active list. Already-active markets are
// left in place.
func (s *ledgerState) activate(marketID MarketID) error {
	active, err := s.IsMarketActive(marketID)
	if err != nil || active {
		return err
	}

	count, err := s.activeCount()
	if err != nil {
		return err
	}

	if err := s.listDB.Put(indexKey(count), marshalUint64(uint64(marketID))); err != nil {
		return err
	}
	if err := s.indexDB.Put(marketKey(marketID), marshalUint32(count)); err != nil {
		return err
	}
	return s.ledgerDB.Put(activeCountKey, marshalUint32(count+1))
}

// deactivate swap-removes the market from the active list: the last slot's
// market is moved into the vacated slot and its index entry is rewritten.
func (s *ledgerState) deactivate(marketID MarketID) error {
	slotBytes, err := s.indexDB.Get(marketKey(marketID))
	if err == database.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	slot, err := unmarshalUint32(slotBytes)
	if err != nil {
		return err
	}

	count, err := s.activeCount()
	if err != nil {
		return err
	}
	lastSlot := count - 1

	if slot != lastSlot {
		lastBytes, err := s.listDB.Get(indexKey(lastSlot))
		if err != nil {
			return err
		}
		lastMarket, err := unmarshalUint64(lastBytes)
		if err != nil {
			return err
		}
		if err := s.listDB.Put(indexKey(slot), lastBytes); err != nil {
			return err
		}
		if err := s.indexDB.Put(marketKey(MarketID(lastMarket)), marshalUint32(slot)); err != nil {
			return err
		}
	}

	if err := s.listDB.Delete(indexKey(lastSlot)); err != nil {
		return err
	}
	if err := s.indexDB.Delete(marketKey(marketID)); err != nil {
		return err
	}
	return s.ledgerDB.Put(activeCountKey, marshalUint32(lastSlot))
}
