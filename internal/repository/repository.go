// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres for authenticated users,
// memory for guests) inside this directory.
package repository

// GuestOwnerID is the synthetic identity under which anonymous usage is
// grouped. Guest designs go to the local store, never to the remote one.
const GuestOwnerID = "guest"

// Selector picks the backing store for a user identity. The choice is
// made once per identity; callers downstream never know which store they
// are talking to.
type Selector struct {
	guest  DesignRepository
	remote DesignRepository
}

// NewSelector returns a Selector over the guest and remote stores.
func NewSelector(guest, remote DesignRepository) *Selector {
	return &Selector{guest: guest, remote: remote}
}

// ForOwner returns the store serving the given identity.
func (s *Selector) ForOwner(ownerID string) DesignRepository {
	if ownerID == "" || ownerID == GuestOwnerID {
		return s.guest
	}
	return s.remote
}
