package logic

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Debouncer turns raw edges into confirmed signal events.
// OnEdge runs in the hardware callback context: it only touches in-memory
// state and never blocks.
type Debouncer interface {
	OnEdge(raw RawEdge) (SignalEvent, Verdict)
}

// Accepted reports whether the verdict produced a SignalEvent.
func (v Verdict) Accepted() bool {
	return v == VerdictAccepted
}

// NewDebouncer returns the debouncer for the given mode. The window is the
// debounce threshold in falling mode and the minimum hold in paired mode.
func NewDebouncer(mode Mode, window time.Duration) (Debouncer, error) {
	if window < 0 {
		return nil, fmt.Errorf("debounce window must not be negative: %v", window)
	}
	switch mode {
	case ModeFalling:
		return NewFallingDebouncer(window), nil
	case ModePaired:
		return NewPairedDebouncer(window), nil
	default:
		return nil, fmt.Errorf("unknown debounce mode %q", mode)
	}
}

// FallingDebouncer accepts a falling edge only when at least threshold has
// elapsed since the previously accepted edge. Rejected edges do not move the
// reference point.
type FallingDebouncer struct {
	thresholdMs uint64
	// lastAccepted holds the accepted monotonic timestamp plus one so zero means "none".
	lastAccepted atomic.Uint64
}

// NewFallingDebouncer creates a falling-edge debouncer.
func NewFallingDebouncer(threshold time.Duration) *FallingDebouncer {
	return &FallingDebouncer{thresholdMs: uint64(threshold.Milliseconds())}
}

// OnEdge implements Debouncer.
func (d *FallingDebouncer) OnEdge(raw RawEdge) (SignalEvent, Verdict) {
	if raw.Level != Falling {
		return SignalEvent{}, VerdictIgnored
	}

	for {
		prev := d.lastAccepted.Load()
		if prev != 0 {
			last := prev - 1
			// A clock that stepped backwards must not lock the input out.
			if raw.MonotonicMs >= last && raw.MonotonicMs-last < d.thresholdMs {
				return SignalEvent{}, VerdictJitter
			}
		}
		if d.lastAccepted.CompareAndSwap(prev, raw.MonotonicMs+1) {
			return SignalEvent{RecordedAt: raw.TimestampMs / 1000}, VerdictAccepted
		}
	}
}

// PairedDebouncer pairs every falling edge with the most recent rising edge
// and accepts the pair when the line was held for at least minHold.
// Each rising edge is consumed by exactly one falling edge.
type PairedDebouncer struct {
	minHoldMs uint64
	// rising holds the rising monotonic timestamp plus one so zero means "not armed".
	rising atomic.Uint64
}

// NewPairedDebouncer creates a rising/falling duration gate.
func NewPairedDebouncer(minHold time.Duration) *PairedDebouncer {
	return &PairedDebouncer{minHoldMs: uint64(minHold.Milliseconds())}
}

// OnEdge implements Debouncer.
func (d *PairedDebouncer) OnEdge(raw RawEdge) (SignalEvent, Verdict) {
	switch raw.Level {
	case Rising:
		d.rising.Store(raw.MonotonicMs + 1)
		return SignalEvent{}, VerdictArmed
	case Falling:
	default:
		return SignalEvent{}, VerdictIgnored
	}

	armed := d.rising.Swap(0)
	if armed == 0 {
		return SignalEvent{}, VerdictUnpaired
	}

	rose := armed - 1
	if raw.MonotonicMs < rose || raw.MonotonicMs-rose < d.minHoldMs {
		return SignalEvent{}, VerdictTooShort
	}
	return SignalEvent{RecordedAt: raw.TimestampMs / 1000}, VerdictAccepted
}
