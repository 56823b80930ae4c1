// Package hazard implements a hazard-pointer safe-memory-reclamation
// domain: a protection scope, typically one per concurrent container,
// from which readers acquire scoped Handles, publish pointers into them,
// and retire objects they have logically removed. A Domain may register
// with a collector.Collector so that retirement is serviced by a shared
// background worker instead of requiring the caller to call Collect
// explicitly.
package hazard

import (
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/dijkstracula/go-smr/collector"
)

// Domain owns every slot it ever allocates for one protected data
// structure. The zero value is not usable; construct with NewDomain.
type Domain[T any] struct {
	deleter func(*T)
	coll    *collector.Collector

	sentinel *slot[T]

	nodes   atomic.Pointer[slot[T]]
	free    atomic.Pointer[slot[T]]
	retired atomic.Pointer[slot[T]]

	// reclaim serializes Collect calls against this domain. The
	// reference design models this as a recursive mutex so a collector
	// thread invoking Collect indirectly through itself doesn't
	// deadlock; nothing in this port ever calls Collect reentrantly from
	// the same goroutine; see DESIGN.md.
	reclaim sync.Mutex
}

// NewDomain constructs a Domain whose retired objects are freed by
// calling deleter. deleter may be nil if T needs no explicit finalization
// beyond becoming garbage once every slot stops hazarding it. If c is
// non-nil, the domain registers itself as a client of c so its retired
// set is drained by c's background worker; retire still works without a
// collector, but nothing will call Collect automatically.
func NewDomain[T any](deleter func(*T), c *collector.Collector) *Domain[T] {
	d := &Domain[T]{deleter: deleter, coll: c}

	d.sentinel = &slot[T]{domain: d}
	d.sentinel.allNext = d.sentinel
	d.sentinel.listNext.Store(d.sentinel)

	d.nodes.Store(d.sentinel)
	d.free.Store(d.sentinel)
	d.retired.Store(d.sentinel)

	if c != nil {
		c.Register(d)
	}
	return d
}

// add pushes a freshly allocated node onto the append-only nodes list.
func (d *Domain[T]) add(node *slot[T]) {
	for {
		head := d.nodes.Load()
		node.allNext = head
		if d.nodes.CompareAndSwap(head, node) {
			return
		}
	}
}

func (d *Domain[T]) newSlot() *slot[T] {
	s := &slot[T]{domain: d}
	d.add(s)
	return s
}

// Prime preallocates n slots onto the free list, so that up to n
// concurrent Acquire calls can be satisfied without an allocation on the
// hot path. Prime(0) is a valid no-op.
func (d *Domain[T]) Prime(n int) {
	for i := 0; i < n; i++ {
		push(&d.free, d.newSlot())
	}
}

// Acquire pops a slot from the free list, allocating a fresh one if the
// free list is empty, and returns a Handle owning it. Acquire never
// blocks except possibly on the allocator.
func (d *Domain[T]) Acquire() *Handle[T] {
	s := pop(&d.free, d.sentinel)
	if s == d.sentinel {
		s = d.newSlot()
	}
	return &Handle[T]{domain: d, slot: s}
}

// HasRetired reports whether this domain currently has anything waiting
// to be reclaimed.
func (d *Domain[T]) HasRetired() bool {
	return d.retired.Load() != d.sentinel
}

// Collect drives one reclamation pass: it snapshots every currently
// published hazard pointer, then frees every retired object whose
// address is not among them. It returns true iff the retired list is
// empty when Collect returns - either because there was nothing to do,
// or because this pass drained it completely.
//
// Runs under d.reclaim, which gates out concurrent Collect calls on this
// same domain (from the owning collector and from any caller-driven
// Collect happening at the same time) without serializing unrelated
// domains against each other.
func (d *Domain[T]) Collect() bool {
	if d.retired.Load() == d.sentinel {
		return true
	}

	d.reclaim.Lock()
	defer d.reclaim.Unlock()

	if d.retired.Load() == d.sentinel {
		return true
	}

	var hazards []uintptr
	for n := d.nodes.Load(); n != d.sentinel; n = n.allNext {
		if p := n.hazard.Load(); p != nil {
			hazards = append(hazards, uintptr(unsafe.Pointer(p)))
		}
	}
	sort.Slice(hazards, func(i, j int) bool { return hazards[i] < hazards[j] })

	for n := d.retired.Load(); n != d.sentinel; {
		next := n.listNext.Load()

		p := n.retired.Load()
		if !protectedBy(hazards, p) {
			n.retired.Store(nil)
			if d.deleter != nil {
				d.deleter(p)
			}
			remove(&d.retired, d.sentinel, n)
			push(&d.free, n)
		}

		n = next
	}

	return d.retired.Load() == d.sentinel
}

func protectedBy[T any](sortedHazards []uintptr, p *T) bool {
	addr := uintptr(unsafe.Pointer(p))
	i := sort.Search(len(sortedHazards), func(i int) bool { return sortedHazards[i] >= addr })
	return i < len(sortedHazards) && sortedHazards[i] == addr
}

// Close tears the domain down. It is not safe to call concurrently with
// any other operation on this domain or its handles - callers must
// sequence this externally. It deregisters from the collector (if any),
// releases any slot still holding a live hazard, performs a final Collect
// to drain the retired list, then deletes every slot. Any outstanding
// Handle becomes invalid.
func (d *Domain[T]) Close() {
	if d.coll != nil {
		d.coll.Deregister(d)
	}

	for n := d.nodes.Load(); n != d.sentinel; n = n.allNext {
		if n.hazard.Load() != nil {
			n.hazard.Store(nil)
			push(&d.free, n)
		}
	}

	d.Collect()

	d.retired.Store(d.sentinel)
	d.free.Store(d.sentinel)
	d.nodes.Store(d.sentinel)
}
