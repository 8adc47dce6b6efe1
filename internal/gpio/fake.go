package gpio

import (
	"sync"
	"time"

	"github.com/graze/signal-counter/internal/logic"
)

// FakeWatcher is a test double that replays scripted edges into a handler.
type FakeWatcher struct {
	handler EdgeHandler

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeWatcher creates a FakeWatcher delivering to handler.
func NewFakeWatcher(handler EdgeHandler) *FakeWatcher {
	return &FakeWatcher{handler: handler}
}

// Emit delivers one edge, as the hardware callback would.
func (f *FakeWatcher) Emit(edge logic.RawEdge) {
	if !f.Closed {
		f.handler(edge)
	}
}

// Pulse emits a rising edge at start and a falling edge after hold.
func (f *FakeWatcher) Pulse(start time.Time, hold time.Duration) {
	f.Emit(logic.EdgeAt(start, logic.Rising))
	f.Emit(logic.EdgeAt(start.Add(hold), logic.Falling))
}

// Close stops delivery.
func (f *FakeWatcher) Close() error {
	f.Closed = true
	return nil
}

// FakeIndicator records blinks instead of driving a pin.
type FakeIndicator struct {
	mu     sync.Mutex
	blinks []time.Duration
	closed bool
}

// NewFakeIndicator creates a FakeIndicator.
func NewFakeIndicator() *FakeIndicator {
	return &FakeIndicator{}
}

// Blink records the duration.
func (f *FakeIndicator) Blink(d time.Duration) {
	f.mu.Lock()
	f.blinks = append(f.blinks, d)
	f.mu.Unlock()
}

// Blinks returns the recorded durations.
func (f *FakeIndicator) Blinks() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.blinks...)
}

// Close marks the indicator as closed.
func (f *FakeIndicator) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *FakeIndicator) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
