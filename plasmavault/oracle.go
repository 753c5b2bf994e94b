// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	// ErrPriceNotFound is returned when the oracle has no quote for an asset.
	ErrPriceNotFound = errors.New("price not found")

	_ PriceOracle = &StaticOracle{}
)

// PriceOracle converts an asset into underlying-asset terms. It is consumed
// by balance fuses during reconciliation, never by the core directly.
type PriceOracle interface {
	// Price returns the asset's price in underlying units scaled by
	// 10^decimals.
	Price(asset ids.ID) (price uint64, decimals uint8, err error)
}

// StaticOracle serves prices from a fixed table. It is meant for tests and
// for vaults whose underlying equals the only asset they hold.
type StaticOracle struct {
	lock   sync.RWMutex
	quotes map[ids.ID]staticQuote
}

type staticQuote struct {
	price    uint64
	decimals uint8
}

func NewStaticOracle() *StaticOracle {
	return &StaticOracle{quotes: make(map[ids.ID]staticQuote)}
}

func (o *StaticOracle) SetPrice(asset ids.ID, price uint64, decimals uint8) {
	o.lock.Lock()
	defer o.lock.Unlock()

	o.quotes[asset] = staticQuote{price: price, decimals: decimals}
}

func (o *StaticOracle) Price(asset ids.ID) (uint64, uint8, error) {
	o.lock.RLock()
	defer o.lock.RUnlock()

	quote, ok := o.quotes[asset]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", ErrPriceNotFound, asset)
	}
	return quote.price, quote.decimals, nil
}
