package collector

import "sync/atomic"

// atomicState is a thin, typed wrapper over atomic.Int32 for clientState,
// giving the CAS-loop registration protocol a per-client atomic enumeration
// without a cast at every call site.
type atomicState struct {
	v atomic.Int32
}

func (a *atomicState) load() clientState {
	return clientState(a.v.Load())
}

func (a *atomicState) store(s clientState) {
	a.v.Store(int32(s))
}

func (a *atomicState) compareAndSwap(old, next clientState) bool {
	return a.v.CompareAndSwap(int32(old), int32(next))
}

// atomicBool is the same wrapping for the collector's active flag.
type atomicBool struct {
	v atomic.Bool
}

func (a *atomicBool) load() bool   { return a.v.Load() }
func (a *atomicBool) store(b bool) { a.v.Store(b) }
