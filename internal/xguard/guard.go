// Package xguard arbitrates access to a rendering backend that is not safe
// for concurrent use unless a one-time threading initialization has run
// before any other use. The guard makes single ownership the default path
// and multi-threaded mode an explicit, irreversible opt-in: once the backend
// has been driven through an exclusive handle, it can never be retrofitted
// to multi-threaded mode.
package xguard

import (
	"runtime"
	"sync/atomic"
)

const (
	// no handle has been issued yet
	stateUnchosen uint32 = iota
	// exactly one exclusive handle is live
	stateSingleThreaded
	// an exclusive handle was issued and released; the backend has been
	// used but never initialized for threads
	stateExSingleThreaded
	// a shared acquisition is running the one-time threading init
	stateMultiThreadedPending
	// threading init completed; terminal
	stateMultiThreaded
)

// Guard is the state register for one backend. All transitions are
// compare-and-swap; contention resolves as "no handle issued", never as a
// blocked caller (except while another caller is mid-initialization).
type Guard struct {
	state       atomic.Uint32
	initThreads func()
}

// New creates a guard for a backend whose one-time threading initialization
// is initThreads. The function runs at most once for the life of the guard,
// and only on the first shared acquisition.
func New(initThreads func()) *Guard {
	return &Guard{initThreads: initThreads}
}

// ExclusiveHandle is the single-ownership way into the backend. It must not
// be shared across goroutines. Release it on every exit path.
type ExclusiveHandle struct {
	g        *Guard
	released atomic.Bool
}

// SharedHandle proves the backend has been initialized for threads. Copies
// are fine; there is nothing to release.
type SharedHandle struct {
	g *Guard
}

// AcquireExclusive issues an exclusive handle if the backend is unused, or
// was only ever used through a since-released exclusive handle. It reports
// false while another exclusive handle is outstanding, and also when it
// loses the re-acquisition race against a concurrent caller: that is a busy
// signal, not an error, and this method does not retry it on the caller's
// behalf. After the backend has entered multi-threaded mode, exclusive
// handles are still issued freely since thread safety is already
// established.
func (g *Guard) AcquireExclusive() (*ExclusiveHandle, bool) {
	for {
		if g.state.CompareAndSwap(stateUnchosen, stateSingleThreaded) {
			return &ExclusiveHandle{g: g}, true
		}
		switch g.state.Load() {
		case stateUnchosen:
			// state moved under us before the Load; try again
			continue
		case stateSingleThreaded:
			return nil, false
		case stateExSingleThreaded:
			if g.state.CompareAndSwap(stateExSingleThreaded, stateSingleThreaded) {
				return &ExclusiveHandle{g: g}, true
			}
			if s := g.state.Load(); s == stateMultiThreadedPending || s == stateMultiThreaded {
				panic("xguard: illegal transition from single-threaded use to multi-threaded mode")
			}
			// preempted by a concurrent acquisition
			return nil, false
		case stateMultiThreadedPending:
			// threading init is in flight; wait for it to settle
			runtime.Gosched()
		case stateMultiThreaded:
			return &ExclusiveHandle{g: g}, true
		}
	}
}

// Release returns the backend to a re-acquirable state. It is a no-op if the
// guard has since entered multi-threaded mode, and on double release.
func (h *ExclusiveHandle) Release() {
	if h.released.Swap(true) {
		return
	}
	h.g.state.CompareAndSwap(stateSingleThreaded, stateExSingleThreaded)
}

// AcquireShared initializes the backend for multi-threaded use (once,
// process-wide for this guard) and returns a shareable handle. Calling it
// after the backend has been used through an exclusive handle is a contract
// violation and panics: the backend cannot be made thread-safe
// retroactively.
func (g *Guard) AcquireShared() *SharedHandle {
	for {
		if g.state.CompareAndSwap(stateUnchosen, stateMultiThreadedPending) {
			if g.initThreads != nil {
				g.initThreads()
			}
			g.state.Store(stateMultiThreaded)
			return &SharedHandle{g: g}
		}
		switch g.state.Load() {
		case stateMultiThreadedPending:
			// another caller is mid-initialization; wait and retry
			runtime.Gosched()
		case stateMultiThreaded:
			return &SharedHandle{g: g}
		case stateSingleThreaded, stateExSingleThreaded:
			panic("xguard: cannot enter multi-threaded mode after single-threaded use")
		}
	}
}
