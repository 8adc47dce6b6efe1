// Package logic contains the pure signal detection logic for the counter.
// This package has NO external dependencies (no GPIO, filesystem, network or time.Sleep).
// Time is always injected, either as millisecond timestamps or time.Time parameters.
package logic

import (
	"strconv"
	"time"
)

// Level is the direction of a raw transition on the input line.
type Level string

const (
	Rising  Level = "RISING"
	Falling Level = "FALLING"
)

// RawEdge is a single transition reported by the hardware boundary.
// It is consumed immediately by a Debouncer and never stored.
//
// Intervals between edges are measured on MonotonicMs only. TimestampMs is
// the wall clock reading that ends up in the log.
type RawEdge struct {
	TimestampMs uint64 // milliseconds since the Unix epoch
	MonotonicMs uint64 // milliseconds on a clock that never steps, such as the kernel event clock
	Level       Level
}

// EdgeAt builds a RawEdge from a single clock reading, used for both fields.
func EdgeAt(t time.Time, level Level) RawEdge {
	ms := uint64(t.UnixMilli())
	return RawEdge{TimestampMs: ms, MonotonicMs: ms, Level: level}
}

// KernelEdge builds a RawEdge from a kernel event timestamp and the wall
// clock reading taken when the event was delivered.
func KernelEdge(wall time.Time, event time.Duration, level Level) RawEdge {
	return RawEdge{
		TimestampMs: uint64(wall.UnixMilli()),
		MonotonicMs: uint64(event.Milliseconds()),
		Level:       level,
	}
}

// SignalEvent is a confirmed, debounced occurrence.
type SignalEvent struct {
	RecordedAt uint64 // seconds since the Unix epoch
}

// Record returns the log line for the event: decimal epoch seconds followed by a newline.
func (e SignalEvent) Record() []byte {
	b := strconv.AppendUint(nil, e.RecordedAt, 10)
	return append(b, '\n')
}

// Mode selects the debounce strategy.
type Mode string

const (
	// ModeFalling accepts a falling edge once the debounce threshold has
	// elapsed since the previously accepted edge.
	ModeFalling Mode = "falling"
	// ModePaired pairs each falling edge with the preceding rising edge and
	// accepts it when the pulse was held for at least the minimum duration.
	ModePaired Mode = "paired"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeFalling, ModePaired:
		return Mode(s), true
	}
	return "", false
}

// Verdict explains what a Debouncer did with an edge.
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictArmed    Verdict = "armed"     // rising edge stored, waiting for its falling edge
	VerdictJitter   Verdict = "jitter"    // inside the debounce window
	VerdictTooShort Verdict = "too_short" // pulse shorter than the hold duration
	VerdictUnpaired Verdict = "unpaired"  // falling edge without a rising edge
	VerdictIgnored  Verdict = "ignored"   // edge direction not used by the strategy
)

// Counts tracks signal outcomes since startup.
type Counts struct {
	Recorded int // appended to the active log
	Rejected int // discarded by the debouncer
	Lost     int // accepted but could not be stored
}
