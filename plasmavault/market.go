// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import "sort"

// MarketID identifies one external integration surface (a lending market, a
// pool, a gauge) tracked independently in the accounting ledger. A MarketID is
// stable for the vault's lifetime once assigned and is never reused for a
// different integration.
type MarketID uint64

// sortedMarkets returns the members of [set] in ascending order so that
// iteration over a touched-market set is deterministic.
func sortedMarkets(set map[MarketID]struct{}) []MarketID {
	markets := make([]MarketID, 0, len(set))
	for marketID := range set {
		markets = append(markets, marketID)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i] < markets[j] })
	return markets
}
