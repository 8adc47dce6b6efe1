// Package capture handles the hardware callback path: debounce, persist, blink.
// Nothing here touches the network.
package capture

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/graze/signal-counter/internal/logic"
	"github.com/graze/signal-counter/internal/metrics"
)

// Appender persists a confirmed signal.
type Appender interface {
	Append(event logic.SignalEvent) error
}

// Indicator gives visual feedback. Blink must return immediately.
type Indicator interface {
	Blink(d time.Duration)
}

// Config holds the optional parts of a Recorder.
type Config struct {
	Indicator Indicator
	Blink     time.Duration // indicator on-time per recorded signal
	Metrics   metrics.Sink

	// SubmitOnSignal makes the recorder request a submission after each
	// recorded signal. Requests are coalesced; see Kick.
	SubmitOnSignal bool
}

// Recorder is the edge callback. OnEdge may run concurrently with the
// main loop's rotate/submit cycle.
type Recorder struct {
	debouncer logic.Debouncer
	store     Appender
	indicator Indicator
	blink     time.Duration
	metrics   metrics.Sink
	kick      chan struct{}

	recorded atomic.Int64
	rejected atomic.Int64
	lost     atomic.Int64
}

// NewRecorder creates a Recorder writing accepted signals to appender.
func NewRecorder(debouncer logic.Debouncer, appender Appender, cfg Config) *Recorder {
	r := &Recorder{
		debouncer: debouncer,
		store:     appender,
		indicator: cfg.Indicator,
		blink:     cfg.Blink,
		metrics:   cfg.Metrics,
	}
	if r.metrics == nil {
		r.metrics = metrics.Noop{}
	}
	if cfg.SubmitOnSignal {
		r.kick = make(chan struct{}, 1)
	}
	return r
}

// OnEdge debounces a raw edge and records the resulting signal, if any.
func (r *Recorder) OnEdge(raw logic.RawEdge) logic.Verdict {
	event, verdict := r.debouncer.OnEdge(raw)
	switch verdict {
	case logic.VerdictAccepted:
	case logic.VerdictJitter, logic.VerdictTooShort, logic.VerdictUnpaired:
		r.rejected.Add(1)
		r.metrics.SignalRejected(string(verdict))
		return verdict
	default:
		return verdict
	}

	if err := r.store.Append(event); err != nil {
		// The physical event cannot be replayed, so there is nothing to retry.
		r.lost.Add(1)
		r.metrics.SignalLost()
		log.Printf("capture: signal at %d lost: %v", event.RecordedAt, err)
		return verdict
	}

	r.recorded.Add(1)
	r.metrics.SignalRecorded()
	log.Printf("capture: signal recorded at %d", event.RecordedAt)

	if r.indicator != nil && r.blink > 0 {
		r.indicator.Blink(r.blink)
	}
	if r.kick != nil {
		select {
		case r.kick <- struct{}{}:
		default:
		}
	}
	return verdict
}

// Kick delivers submission requests when SubmitOnSignal is set, nil otherwise.
// Requests made while one is still unread are dropped.
func (r *Recorder) Kick() <-chan struct{} {
	return r.kick
}

// Counts returns signal outcomes since startup.
func (r *Recorder) Counts() logic.Counts {
	return logic.Counts{
		Recorded: int(r.recorded.Load()),
		Rejected: int(r.rejected.Load()),
		Lost:     int(r.lost.Load()),
	}
}
