package submit

import "sync/atomic"

// Guard allows at most one submission in flight. The zero value is idle.
// It is not persisted: after a crash the pending batch on disk is the
// recovery signal, not the guard.
type Guard struct {
	inFlight atomic.Bool
}

// TryEnter moves the guard from idle to in-flight. It returns false if a
// submission is already running; the caller must skip, not queue.
func (g *Guard) TryEnter() bool {
	return g.inFlight.CompareAndSwap(false, true)
}

// Leave resets the guard to idle. It must run on every exit path.
func (g *Guard) Leave() {
	g.inFlight.Store(false)
}

// InFlight reports whether a submission is running.
func (g *Guard) InFlight() bool {
	return g.inFlight.Load()
}
