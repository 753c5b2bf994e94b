package plasmavault

import (
	"encoding/binary"
	"errors"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/wrappers"
)

const (
	idLen       = 32 /* ids.ID */
	shortIDLen  = 20 /* ids.ShortID */
	selectorLen = 4

	preHookEntrySize = shortIDLen + wrappers.IntLen /* impl + index */
)

var (
	ErrInvalidEntryFormat = errors.New("invalid entry format")
)

// marketKey is the fixed database key for a market row.
func marketKey(marketID MarketID) []byte {
	key := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(key, uint64(marketID))
	return key
}

// marketSubstrateKey is the reverse-lookup membership key for
// (marketID, substrate) pairs.
func marketSubstrateKey(marketID MarketID, substrate ids.ID) []byte {
	key := make([]byte, wrappers.LongLen+idLen)
	binary.BigEndian.PutUint64(key, uint64(marketID))
	copy(key[wrappers.LongLen:], substrate[:])
	return key
}

// indexKey is the fixed database key for a slot in a swap-remove list.
func indexKey(index uint32) []byte {
	key := make([]byte, wrappers.IntLen)
	binary.BigEndian.PutUint32(key, index)
	return key
}

// implSelectorKey keys a pre-hook substrate set by (implementation, selector).
func implSelectorKey(impl ids.ShortID, selector Selector) []byte {
	key := make([]byte, shortIDLen+selectorLen)
	copy(key, impl[:])
	copy(key[shortIDLen:], selector[:])
	return key
}

func marshalUint64(value uint64) []byte {
	raw := make([]byte, wrappers.LongLen)
	binary.BigEndian.PutUint64(raw, value)
	return raw
}

func unmarshalUint64(raw []byte) (uint64, error) {
	if len(raw) != wrappers.LongLen {
		return 0, ErrInvalidEntryFormat
	}
	return binary.BigEndian.Uint64(raw), nil
}

func marshalUint32(value uint32) []byte {
	raw := make([]byte, wrappers.IntLen)
	binary.BigEndian.PutUint32(raw, value)
	return raw
}

func unmarshalUint32(raw []byte) (uint32, error) {
	if len(raw) != wrappers.IntLen {
		return 0, ErrInvalidEntryFormat
	}
	return binary.BigEndian.Uint32(raw), nil
}

// marshalPreHookEntry packs a pre-hook implementation address together with
// the selector's slot in the active-selector list.
func marshalPreHookEntry(impl ids.ShortID, index uint32) []byte {
	raw := make([]byte, preHookEntrySize)
	copy(raw, impl[:])
	binary.BigEndian.PutUint32(raw[shortIDLen:], index)
	return raw
}

func unmarshalPreHookEntry(raw []byte) (ids.ShortID, uint32, error) {
	if len(raw) != preHookEntrySize {
		return ids.ShortEmpty, 0, ErrInvalidEntryFormat
	}
	var impl ids.ShortID
	copy(impl[:], raw[:shortIDLen])
	index := binary.BigEndian.Uint32(raw[shortIDLen:])
	return impl, index, nil
}
