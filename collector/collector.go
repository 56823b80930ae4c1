// Package collector implements the shared background reclaimer: a single
// worker goroutine that services any number of registered clients,
// periodically asking each to reclaim whatever it safely can and sleeping
// on a binary event between rounds.
//
// A client is anything with retired objects waiting to be freed - in
// practice a *hazard.Domain[T] - exposed here only through the narrow
// Client capability set so this package never needs to know about hazard
// pointers, slots, or T.
package collector

import (
	"runtime"
	"sync"
	"time"

	"github.com/dijkstracula/go-smr/event"
)

// Client is the capability set a protection domain exposes to a
// Collector.
type Client interface {
	// HasRetired reports whether the client currently has anything
	// waiting to be reclaimed.
	HasRetired() bool
	// Collect drives one reclamation pass and reports whether the
	// client's retired set is now fully drained.
	Collect() bool
}

// drainInterval is how long the worker sleeps before retrying a pass that
// left retired objects behind.
const drainInterval = 100 * time.Millisecond

type clientState int32

const (
	unregistered clientState = iota
	registered
	collecting
	deleting
)

type entry struct {
	id     uint64
	client Client
	state  atomicState
}

// Collector runs a single background goroutine that repeatedly scans its
// registered clients for pending work. Construct with New; stop with
// Stop.
type Collector struct {
	mu       sync.Mutex
	entries  []*entry
	byClient map[Client]*entry
	nextID   uint64

	event  *event.Binary
	active atomicBool
	done   chan struct{}
}

// New constructs a Collector and starts its worker goroutine.
func New() *Collector {
	c := &Collector{
		byClient: make(map[Client]*entry),
		event:    event.NewBinary(),
		done:     make(chan struct{}),
	}
	c.active.store(true)
	go c.run()
	return c
}

// Register adds client to the set this Collector services. Panics if
// client is already registered.
func (c *Collector) Register(client Client) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byClient[client]; ok {
		panic("collector: client already registered")
	}
	c.nextID++
	e := &entry{id: c.nextID, client: client}
	e.state.store(registered)
	c.byClient[client] = e
	c.entries = append(c.entries, e)
}

// Deregister removes client from the set this Collector services. It
// blocks until any collection pass currently executing client.Collect is
// finished, and does not return until no future pass will touch client.
// Panics if client was never registered.
func (c *Collector) Deregister(client Client) {
	c.mu.Lock()
	e, ok := c.byClient[client]
	c.mu.Unlock()
	if !ok {
		panic("collector: deregister of unknown client")
	}

	for !e.state.compareAndSwap(registered, deleting) {
		// Either a pass is actively inside client.Collect() - wait for it
		// to hand the state back to registered and try again - or another
		// call already claimed deregistration, which is a caller bug.
		if e.state.load() == deleting {
			panic("collector: concurrent deregister of the same client")
		}
		runtime.Gosched()
	}

	c.mu.Lock()
	delete(c.byClient, client)
	for i, candidate := range c.entries {
		if candidate == e {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	e.state.store(unregistered)
}

// Signal wakes the collector's worker, asking it to run a pass as soon as
// it is scheduled. Called by a client after retiring an object, and by
// Stop.
func (c *Collector) Signal() {
	c.event.Post()
}

// Stop asks the worker goroutine to exit after its current pass. If join
// is true, Stop blocks until the worker has actually exited.
func (c *Collector) Stop(join bool) {
	c.active.store(false)
	c.event.Post()
	if join {
		<-c.done
	}
}

func (c *Collector) run() {
	defer close(c.done)
	for c.active.load() {
		if c.collectAll() {
			time.Sleep(drainInterval)
			c.event.Post()
		}
		c.event.Wait()
	}
}

// collectAll drives one fair pass over every registered client with
// pending work, in ascending registration-id order. It reports whether
// any visited client's Collect returned "not drained". The id watermark
// bounds how long the registry mutex is held: each iteration holds it
// only long enough to pick the next candidate, never across the client's
// own Collect call.
func (c *Collector) collectAll() bool {
	pending := false
	var lastID uint64

	for {
		c.mu.Lock()
		var candidate *entry
		for _, e := range c.entries {
			if e.id <= lastID {
				continue
			}
			if e.state.load() != registered {
				continue
			}
			if !e.client.HasRetired() {
				continue
			}
			candidate = e
			break
		}
		if candidate == nil {
			c.mu.Unlock()
			return pending
		}
		claimed := candidate.state.compareAndSwap(registered, collecting)
		lastID = candidate.id
		c.mu.Unlock()

		if !claimed {
			// Only a concurrent Deregister can move a client out of
			// registered between our Load and this CAS; anything else
			// observed here is a different collector pass racing us,
			// which the registered->collecting transition is supposed
			// to prevent entirely.
			if candidate.state.load() != deleting {
				panic("collector: unexpected client state during scan")
			}
			continue
		}

		if !candidate.client.Collect() {
			pending = true
		}

		if !candidate.state.compareAndSwap(collecting, registered) {
			panic("collector: client state mutated while collecting")
		}
	}
}
