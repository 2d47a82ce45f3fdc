// Package roles implements the ownership and admin state machine. A Store
// holds exactly one owner, an optional pending owner (two-step transfers
// only), and a duplicate-free admin set. Authorization is a pure function of
// the caller identity and the store; nothing here touches balances.
package roles

import (
	"fmt"

	"github.com/clawpay/settler/types"
)

// Store is the role state of one engine deployment. Insertion order of
// admins is preserved so reads are stable across restarts.
type Store struct {
	mode   types.OwnershipMode
	policy types.AdminPolicy

	owner   types.Identity
	pending types.Identity
	admins  []types.Identity
}

// NewStore builds a role store with the given transfer and admin policy
// shapes. The owner must be non-zero.
func NewStore(mode types.OwnershipMode, policy types.AdminPolicy, owner types.Identity) (*Store, error) {
	if owner.IsZero() {
		return nil, types.NewError(types.ErrInvalidIdentity, "owner must not be the zero identity")
	}
	return &Store{mode: mode, policy: policy, owner: owner}, nil
}

// Owner returns the current owner.
func (s *Store) Owner() types.Identity { return s.owner }

// PendingOwner returns the proposed owner, or the zero identity when no
// transfer is pending.
func (s *Store) PendingOwner() types.Identity { return s.pending }

// Mode returns the configured ownership-transfer shape.
func (s *Store) Mode() types.OwnershipMode { return s.mode }

// Policy returns the configured admin add/remove policy.
func (s *Store) Policy() types.AdminPolicy { return s.policy }

// Admins returns a copy of the admin set in insertion order.
func (s *Store) Admins() []types.Identity {
	out := make([]types.Identity, len(s.admins))
	copy(out, s.admins)
	return out
}

// IsOwner reports whether caller is the current owner.
func (s *Store) IsOwner(caller types.Identity) bool {
	return caller == s.owner
}

// IsAdmin reports whether caller is in the admin set. The owner is not
// implicitly a member.
func (s *Store) IsAdmin(caller types.Identity) bool {
	for _, a := range s.admins {
		if a == caller {
			return true
		}
	}
	return false
}

// IsOwnerOrAdmin is the admin-gated authorization check: the owner passes
// without being an admin member.
func (s *Store) IsOwnerOrAdmin(caller types.Identity) bool {
	return s.IsOwner(caller) || s.IsAdmin(caller)
}

// SetOwner performs a direct one-step ownership transfer. Only available in
// direct mode and only to the current owner.
func (s *Store) SetOwner(caller, next types.Identity) error {
	if s.mode != types.OwnershipDirect {
		return types.NewError(types.ErrUnauthorized, "direct ownership transfer is disabled; use propose/accept")
	}
	if !s.IsOwner(caller) {
		return types.NewError(types.ErrUnauthorized, "only the owner can transfer ownership")
	}
	if next.IsZero() {
		return types.NewError(types.ErrInvalidIdentity, "new owner must not be the zero identity")
	}
	s.owner = next
	return nil
}

// ProposeOwner records a pending owner for a two-step transfer. Only
// available in two-step mode and only to the current owner. A later proposal
// replaces an earlier one.
func (s *Store) ProposeOwner(caller, next types.Identity) error {
	if s.mode != types.OwnershipTwoStep {
		return types.NewError(types.ErrUnauthorized, "two-step ownership transfer is disabled; use direct transfer")
	}
	if !s.IsOwner(caller) {
		return types.NewError(types.ErrUnauthorized, "only the owner can propose a new owner")
	}
	if next.IsZero() {
		return types.NewError(types.ErrInvalidIdentity, "proposed owner must not be the zero identity")
	}
	s.pending = next
	return nil
}

// AcceptOwnership completes a two-step transfer. Only the pending owner may
// call; acceptance clears the pending field.
func (s *Store) AcceptOwnership(caller types.Identity) error {
	if s.mode != types.OwnershipTwoStep {
		return types.NewError(types.ErrUnauthorized, "two-step ownership transfer is disabled")
	}
	if s.pending.IsZero() {
		return types.NewError(types.ErrNoPendingOwner, "no ownership transfer is pending")
	}
	if caller != s.pending {
		return types.NewError(types.ErrUnauthorized, "only the pending owner can accept ownership")
	}
	s.owner = s.pending
	s.pending = types.ZeroIdentity
	return nil
}

// AddAdmin adds an identity to the admin set. Owner-only. Under the strict
// policy a duplicate add fails with already_admin; under the idempotent
// policy it is a no-op. The returned bool reports whether the set changed.
func (s *Store) AddAdmin(caller, admin types.Identity) (bool, error) {
	if !s.IsOwner(caller) {
		return false, types.NewError(types.ErrUnauthorized, "only the owner can add admins")
	}
	if admin.IsZero() {
		return false, types.NewError(types.ErrInvalidIdentity, "admin must not be the zero identity")
	}
	if s.IsAdmin(admin) {
		if s.policy == types.AdminPolicyStrict {
			return false, types.NewError(types.ErrAlreadyAdmin, fmt.Sprintf("%s is already an admin", admin))
		}
		return false, nil
	}
	s.admins = append(s.admins, admin)
	return true, nil
}

// RemoveAdmin removes an identity from the admin set. Owner-only. Under the
// strict policy removing a non-member fails with not_admin.
func (s *Store) RemoveAdmin(caller, admin types.Identity) (bool, error) {
	if !s.IsOwner(caller) {
		return false, types.NewError(types.ErrUnauthorized, "only the owner can remove admins")
	}
	for i, a := range s.admins {
		if a == admin {
			s.admins = append(s.admins[:i], s.admins[i+1:]...)
			return true, nil
		}
	}
	if s.policy == types.AdminPolicyStrict {
		return false, types.NewError(types.ErrNotAdmin, fmt.Sprintf("%s is not an admin", admin))
	}
	return false, nil
}

// Clone deep-copies the store so an operation can mutate a working copy and
// discard it on failure.
func (s *Store) Clone() *Store {
	clone := &Store{mode: s.mode, policy: s.policy, owner: s.owner, pending: s.pending}
	if len(s.admins) > 0 {
		clone.admins = make([]types.Identity, len(s.admins))
		copy(clone.admins, s.admins)
	}
	return clone
}

// State is the serializable snapshot of a Store.
type State struct {
	Mode    types.OwnershipMode `json:"mode"`
	Policy  types.AdminPolicy   `json:"policy"`
	Owner   types.Identity      `json:"owner"`
	Pending types.Identity      `json:"pending,omitempty"`
	Admins  []types.Identity    `json:"admins,omitempty"`
}

// Snapshot exports the store for persistence.
func (s *Store) Snapshot() State {
	return State{Mode: s.mode, Policy: s.policy, Owner: s.owner, Pending: s.pending, Admins: s.Admins()}
}

// FromState rebuilds a store from a persisted snapshot.
func FromState(state State) (*Store, error) {
	store, err := NewStore(state.Mode, state.Policy, state.Owner)
	if err != nil {
		return nil, err
	}
	store.pending = state.Pending
	for _, a := range state.Admins {
		if a.IsZero() || store.IsAdmin(a) {
			return nil, types.NewError(types.ErrInvalidIdentity, "persisted admin set is malformed")
		}
		store.admins = append(store.admins, a)
	}
	return store, nil
}
