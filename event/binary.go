// Package event implements a binary "event" semaphore: a one-bit,
// edge-triggered signal used to wake a sleeping worker. A single Post
// coalesces with any pending, un-waited-for Post; a single Wait consumes
// every pending Post since the last Wait.
//
// This is the collector's wake-up primitive (see package collector):
// retire calls Post, the collector's worker loop calls Wait between
// rounds.
package event

import "sync/atomic"

const (
	unavailable uint32 = 0
	available   uint32 = 1
)

// Binary is a binary semaphore with edge-triggered coalescing: any number
// of Posts between two Waits are collapsed into the single pending signal
// that the next Wait consumes. The zero value is not ready to use; call
// NewBinary.
//
// The Linux build backs Wait/Post with the futex syscall so that waiting
// goroutines block the underlying OS thread rather than spin; other
// platforms fall back to an equivalent mutex/condvar pairing. The type
// itself (fields, NewBinary, block, wake) is defined per-platform in
// binary_linux.go / binary_other.go; this file holds only the CAS protocol
// over the state word that both share - correctness depends on that
// protocol, not on which blocking primitive realizes it.

// Post signals the event. If it was already available, this is a no-op:
// the pending signal is what a subsequent Wait will consume regardless of
// how many Posts arrived since.
func (b *Binary) Post() {
	if atomic.CompareAndSwapUint32(&b.state, unavailable, available) {
		b.wake()
	}
}

// Wait blocks until the event is available, then clears it. Any number of
// Posts issued before Wait is called collapse into a single wakeup.
func (b *Binary) Wait() {
	for {
		if atomic.CompareAndSwapUint32(&b.state, available, unavailable) {
			return
		}
		b.block()
	}
}

// TryWait clears the event and returns true if it was available, without
// blocking.
func (b *Binary) TryWait() bool {
	return atomic.CompareAndSwapUint32(&b.state, available, unavailable)
}
