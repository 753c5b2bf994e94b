// (c) 2026, Plasma Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package plasmavault

import (
	"sync"

	"github.com/ava-labs/avalanchego/ids"
)

// Role is a named capability required to call a privileged vault entry
// point. Role assignment mechanics are outside the core; the vault only
// evaluates the boolean guard.
type Role uint8

const (
	// RoleAtomist may submit allocation batches to Execute.
	RoleAtomist Role = iota

	// RoleFuseManager may mutate the registries, the dependency graph, and
	// the pre-hook binding table.
	RoleFuseManager
)

// RoleGate answers whether a caller holds a role.
type RoleGate interface {
	Can(caller ids.ShortID, role Role) bool
}

var _ RoleGate = &RoleSet{}

// RoleSet is an in-memory RoleGate.
type RoleSet struct {
	lock   sync.RWMutex
	grants map[ids.ShortID]map[Role]struct{}
}

func NewRoleSet() *RoleSet {
	return &RoleSet{grants: make(map[ids.ShortID]map[Role]struct{})}
}

func (r *RoleSet) Grant(caller ids.ShortID, roles ...Role) {
	r.lock.Lock()
	defer r.lock.Unlock()

	held, ok := r.grants[caller]
	if !ok {
		held = make(map[Role]struct{})
		r.grants[caller] = held
	}
	for _, role := range roles {
		held[role] = struct{}{}
	}
}

func (r *RoleSet) Revoke(caller ids.ShortID, roles ...Role) {
	r.lock.Lock()
	defer r.lock.Unlock()

	held, ok := r.grants[caller]
	if !ok {
		return
	}
	for _, role := range roles {
		delete(held, role)
	}
}

func (r *RoleSet) Can(caller ids.ShortID, role Role) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()

	held, ok := r.grants[caller]
	if !ok {
		return false
	}
	_, can := held[role]
	return can
}
