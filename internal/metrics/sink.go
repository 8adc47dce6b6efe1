// Package metrics records counter activity.
package metrics

import "time"

// Sink defines the interface for recording metrics.
// All methods are fire-and-forget: implementations MUST NOT block or propagate errors.
// Signal methods are called from the hardware callback path.
type Sink interface {
	// Capture metrics
	SignalRecorded()
	SignalRejected(verdict string)
	SignalLost()

	// Submission metrics
	Rotation(outcome string)
	Submission(outcome string, duration time.Duration)
	PendingBatch(present bool)
}

// Noop discards everything.
type Noop struct{}

func (Noop) SignalRecorded() {}
func (Noop) SignalRejected(string) {}
func (Noop) SignalLost() {}
func (Noop) Rotation(string) {}
func (Noop) Submission(string, time.Duration) {}
func (Noop) PendingBatch(bool) {}
