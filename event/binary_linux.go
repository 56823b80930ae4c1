//go:build linux

package event

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Binary is the Linux realization of the event semaphore: state is both
// the CAS word in binary.go and the futex word watched by the kernel.
type Binary struct {
	state uint32
}

// NewBinary returns a Binary in the unavailable state.
func NewBinary() *Binary {
	return &Binary{state: unavailable}
}

// block suspends the calling goroutine's OS thread in the kernel until the
// state word changes away from unavailable, mirroring the original
// implementation's direct `syscall(SYS_futex, ...)` call (see
// bdfutex.cpp/futex_wait in the reference sources this package is ported
// from). FUTEX_PRIVATE_FLAG is safe here: the word is never shared across
// processes.
func (b *Binary) block() {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&b.state)),
		uintptr(unix.FUTEX_WAIT|unix.FUTEX_PRIVATE_FLAG),
		uintptr(unavailable),
		0, 0, 0,
	)
	// EAGAIN: the word changed between our CAS and the syscall - fine,
	// the caller's loop will re-check. EINTR: spurious wake - same.
	// Anything else would mean the word we're watching is wrong, which is
	// a programming bug in this package, not a caller error.
	if errno != 0 && errno != unix.EAGAIN && errno != unix.EINTR {
		panic("event: futex wait failed: " + errno.Error())
	}
}

// wake notifies a single waiter blocked in block, matching futex_wake's
// wake_count of 1 in the reference implementation - only one goroutine
// needs to observe a given Post since Wait claims the signal atomically.
func (b *Binary) wake() {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(&b.state)),
		uintptr(unix.FUTEX_WAKE|unix.FUTEX_PRIVATE_FLAG),
		1,
		0, 0, 0,
	)
	if errno != 0 {
		panic("event: futex wake failed: " + errno.Error())
	}
}
