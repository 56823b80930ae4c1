package hazard

import "sync/atomic"

// slot is the unit of storage a Domain allocates and recycles. At most one
// of {free, retired} ever contains a given slot at a time; listNext is nil
// exactly when the slot is on neither.
type slot[T any] struct {
	// hazard is the currently protected pointer, visible to the
	// collector. Written by the owning Handle, read by Collect.
	hazard atomic.Pointer[T]
	// retired is the pointer that was being protected at the moment of
	// retirement, awaiting reclamation. Non-nil iff the slot is on the
	// domain's retired list.
	retired atomic.Pointer[T]

	// domain is a non-owning back-reference; the domain outlives every
	// slot it allocates.
	domain *Domain[T]

	// allNext links this slot into its domain's append-only nodes list.
	// Set once at creation by add, never mutated afterwards.
	allNext *slot[T]

	// listNext links this slot into whichever of free/retired it
	// currently occupies. nil means the slot is on neither list.
	listNext atomic.Pointer[slot[T]]
}
