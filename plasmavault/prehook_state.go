// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/ids"
)

var (
	errInvalidSelector    = errors.New("invalid selector")
	errInvalidArrayLength = errors.New("invalid array length")

	preHookEntryPrefix     = []byte("entry")
	preHookListPrefix      = []byte("list")
	preHookSubstratePrefix = []byte("substrates")

	selectorCountKey = []byte("selectorCount")

	_ PreHookState = &preHookState{}
)

// Selector identifies one vault entry point a pre-hook can be bound to.
// The zero selector is a sentinel and is never registered.
type Selector [selectorLen]byte

// zeroSelector is the unset sentinel.
var zeroSelector = Selector{}

// PreHookState is the selector -> implementation binding table, with a
// substrate side-table keyed by (implementation, selector) and a swap-remove
// list of the currently active selectors.
type PreHookState interface {
	// GetPreHookImplementation returns ids.ShortEmpty when the selector has
	// no hook bound.
	GetPreHookImplementation(selector Selector) (ids.ShortID, error)

	GetPreHookSubstrates(impl ids.ShortID, selector Selector) ([]ids.ID, error)

	// ActiveSelectors returns every bound selector in internal slot order.
	ActiveSelectors() ([]Selector, error)

	// SetPreHookImplementations processes one entry per selector
	// independently: binding an unbound selector installs it, binding
	// ids.ShortEmpty removes it, and binding a different implementation
	// replaces it in place. Preconditions (equal array lengths, no zero
	// selector) are checked before any mutation.
	SetPreHookImplementations(selectors []Selector, impls []ids.ShortID, substrates [][]ids.ID) error
}

type preHookState struct {
	preHookDB   database.Database
	entryDB     database.Database // selector -> (impl, slot index)
	listDB      database.Database // slot index -> selector
	substrateDB database.Database // (impl, selector) -> substrate row
}

func NewPreHookState(db database.Database) PreHookState {
	return &preHookState{
		preHookDB:   db,
		entryDB:     prefixdb.New(preHookEntryPrefix, db),
		listDB:      prefixdb.New(preHookListPrefix, db),
		substrateDB: prefixdb.New(preHookSubstratePrefix, db),
	}
}

func (s *preHookState) GetPreHookImplementation(selector Selector) (ids.ShortID, error) {
	entryBytes, err := s.entryDB.Get(selector[:])
	if err == database.ErrNotFound {
		return ids.ShortEmpty, nil
	}
	if err != nil {
		return ids.ShortEmpty, err
	}
	impl, _, err := unmarshalPreHookEntry(entryBytes)
	return impl, err
}

func (s *preHookState) GetPreHookSubstrates(impl ids.ShortID, selector Selector) ([]ids.ID, error) {
	rowBytes, err := s.substrateDB.Get(implSelectorKey(impl, selector))
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
	return row.Substrates, nil
}

func (s *preHookState) ActiveSelectors() ([]Selector, error) {
	count, err := s.selectorCount()
	if err != nil {
		return nil, err
	}

	selectors := make([]Selector, 0, count)
	for slot := uint32(0); slot < count; slot++ {
		selectorBytes, err := s.listDB.Get(indexKey(slot))
		if err != nil {
			return nil, err
		}
		if len(selectorBytes) != selectorLen {
			return nil, ErrInvalidEntryFormat
		}
		selector := Selector{}
		copy(selector[:], selectorBytes)
		selectors = append(selectors, selector)
	}
	return selectors, nil
}

func (s *preHookState) SetPreHookImplementations(selectors []Selector, impls []ids.ShortID, substrates [][]ids.ID) error {
	if len(selectors) != len(impls) || len(selectors) != len(substrates) {
		return errInvalidArrayLength
	}
	for _, selector := range selectors {
		if selector == zeroSelector {
			return errInvalidSelector
		}
	}

	for i, selector := range selectors {
		if err := s.setPreHook(selector, impls[i], substrates[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *preHookState) setPreHook(selector Selector, newImpl ids.ShortID, substrates []ids.ID) error {
	oldImpl, slot, err := s.entry(selector)
	if err != nil {
		return err
	}

	switch {
	case oldImpl == ids.ShortEmpty && newImpl == ids.ShortEmpty:
		// Removing a hook that was never installed is a no-op; a zero
		// implementation is never stored.
		return nil

	case oldImpl == ids.ShortEmpty:
		// Install: append the selector to the active list.
		count, err := s.selectorCount()
		if err != nil {
			return err
		}
		if err := s.listDB.Put(indexKey(count), selector[:]); err != nil {
			return err
		}
		if err := s.entryDB.Put(selector[:], marshalPreHookEntry(newImpl, count)); err != nil {
			return err
		}
		if err := s.preHookDB.Put(selectorCountKey, marshalUint32(count+1)); err != nil {
			return err
		}
		return s.putSubstrates(newImpl, selector, substrates)

	case newImpl == ids.ShortEmpty:
		// Remove: swap-remove the selector from the active list.
		if err := s.removeFromList(slot); err != nil {
			return err
		}
		if err := s.entryDB.Delete(selector[:]); err != nil {
			return err
		}
		return s.substrateDB.Delete(implSelectorKey(oldImpl, selector))

	default:
		// Replace: the selector keeps its slot; only the implementation and
		// its substrate set change.
		if oldImpl != newImpl {
			if err := s.substrateDB.Delete(implSelectorKey(oldImpl, selector)); err != nil {
				return err
			}
		}
		if err := s.entryDB.Put(selector[:], marshalPreHookEntry(newImpl, slot)); err != nil {
			return err
		}
		return s.putSubstrates(newImpl, selector, substrates)
	}
}

func (s *preHookState) entry(selector Selector) (ids.ShortID, uint32, error) {
	entryBytes, err := s.entryDB.Get(selector[:])
	if err == database.ErrNotFound {
		return ids.ShortEmpty, 0, nil
	}
	if err != nil {
		return ids.ShortEmpty, 0, err
	}
	return unmarshalPreHookEntry(entryBytes)
}

func (s *preHookState) selectorCount() (uint32, error) {
	countBytes, err := s.preHookDB.Get(selectorCountKey)
	if err == database.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return unmarshalUint32(countBytes)
}

// removeFromList vacates [slot] by moving the last selector into it and
// rewriting that selector's recorded index. Removing the last slot needs no
// swap.
func (s *preHookState) removeFromList(slot uint32) error {
	count, err := s.selectorCount()
	if err != nil {
		return err
	}
	lastSlot := count - 1

	if slot != lastSlot {
		lastBytes, err := s.listDB.Get(indexKey(lastSlot))
		if err != nil {
			return err
		}
		if len(lastBytes) != selectorLen {
			return ErrInvalidEntryFormat
		}
		lastSelector := Selector{}
		copy(lastSelector[:], lastBytes)

		lastImpl, _, err := s.entry(lastSelector)
		if err != nil {
			return err
		}
		if err := s.listDB.Put(indexKey(slot), lastBytes); err != nil {
			return err
		}
		if err := s.entryDB.Put(lastSelector[:], marshalPreHookEntry(lastImpl, slot)); err != nil {
			return err
		}
	}

	if err := s.listDB.Delete(indexKey(lastSlot)); err != nil {
		return err
	}
	return s.preHookDB.Put(selectorCountKey, marshalUint32(lastSlot))
}

func (s *preHookState) putSubstrates(impl ids.ShortID, selector Selector, substrates []ids.ID) error {
	rowBytes, err := Codec.Marshal(CodecVersion, &substrateRow{Substrates: substrates})
	if err != nil {
		return err
	}
	return s.substrateDB.Put(implSelectorKey(impl, selector), rowBytes)
}
