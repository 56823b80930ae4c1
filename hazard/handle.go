package hazard

import "sync/atomic"

// Handle is a scoped, move-only reader token bound to one slot for its
// entire lifetime. It is not safe for concurrent use by multiple
// goroutines - exactly one goroutine is expected to hold and drive a
// given Handle, matching the reference design's "single writer" per
// hazard pointer record.
type Handle[T any] struct {
	domain *Domain[T]
	slot   *slot[T]
}

// Protect stores the current value of *ptr into the handle's hazard
// slot with release ordering and returns that value. The caller is
// expected to re-read *ptr after this call and loop until two
// consecutive reads agree - the standard hazard-pointer publication
// protocol - validating the read itself, which is the caller's
// responsibility and not this method's.
//
// Protect panics if called on a Handle that has already been consumed by
// Release or Retire.
func (h *Handle[T]) Protect(ptr *atomic.Pointer[T]) *T {
	if h.slot == nil {
		panic("hazard: Protect on a released or retired Handle")
	}
	p := ptr.Load()
	h.slot.hazard.Store(p)
	return p
}

// Clear stores nil into the hazard slot. The slot remains owned by the
// Handle and reusable for a subsequent Protect. Panics if called on a
// Handle that has already been consumed by Release or Retire.
func (h *Handle[T]) Clear() {
	if h.slot == nil {
		panic("hazard: Clear on a released or retired Handle")
	}
	h.slot.hazard.Store(nil)
}

// Release clears the hazard slot and returns it to the domain's free
// list. Idempotent: calling Release again on an already-released or
// already-retired Handle is a no-op - this is the one operation the
// reference design calls out by name as safe to repeat.
func (h *Handle[T]) Release() {
	if h.slot == nil {
		return
	}
	h.slot.hazard.Store(nil)
	push(&h.domain.free, h.slot)
	h.slot = nil
}

// Retire atomically moves the currently protected pointer into the
// slot's retired field, pushes the slot onto the domain's retired list,
// and signals the domain's collector if one is registered. Panics if the
// Handle has already been consumed by Release or Retire (double-retire is
// a contract violation, not a no-op), or if it has no currently protected
// pointer (hazard is nil) - retiring nothing is a contract violation too,
// because the caller is expected to know it logically removed an object
// from its container immediately before calling Retire.
//
// After Retire returns, the Handle no longer owns the slot.
func (h *Handle[T]) Retire() {
	if h.slot == nil {
		panic("hazard: Retire on a released or retired Handle")
	}
	p := h.slot.hazard.Swap(nil)
	if p == nil {
		panic("hazard: Retire on a Handle with nothing protected")
	}
	h.slot.retired.Store(p)
	push(&h.domain.retired, h.slot)
	if h.domain.coll != nil {
		h.domain.coll.Signal()
	}
	h.slot = nil
}

// Get returns the currently protected pointer, or nil if the Handle has
// been released or retired, or nothing has been protected yet.
func (h *Handle[T]) Get() *T {
	if h.slot == nil {
		return nil
	}
	return h.slot.hazard.Load()
}
