// Package submit delivers pending batches to the collector with at-least-once semantics.
package submit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/graze/signal-counter/internal/eventlog"
	"github.com/graze/signal-counter/internal/identity"
	"github.com/graze/signal-counter/internal/metrics"
	"github.com/graze/signal-counter/internal/transport"
)

// ErrGuardBusy is carried by a Busy result. It is a skip, not a failure.
var ErrGuardBusy = errors.New("submission already in flight")

// Outcome is the result of one SubmitPending call.
type Outcome string

const (
	NothingToSend  Outcome = "nothing_to_send"
	Delivered      Outcome = "delivered"
	DeliveryFailed Outcome = "delivery_failed"
	Busy           Outcome = "busy"
)

// Result describes a submission attempt.
type Result struct {
	Outcome  Outcome
	Rotation eventlog.RotateOutcome // empty when the guard was busy
	Records  int                    // records in the batch that was sent
	Bytes    int
	Duration time.Duration // time spent in the transport
	Err      error
}

// Pipeline rotates the active log and sends the pending batch.
// A batch is removed only after the collector confirms it, so the same
// bytes are resent on every attempt until one succeeds.
type Pipeline struct {
	log     *eventlog.Log
	sender  transport.Sender
	ident   identity.Source
	metrics metrics.Sink
	guard   Guard
}

// New creates a Pipeline. A nil sink disables metrics.
func New(l *eventlog.Log, sender transport.Sender, ident identity.Source, sink metrics.Sink) *Pipeline {
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Pipeline{log: l, sender: sender, ident: ident, metrics: sink}
}

// InFlight reports whether a submission is currently running.
func (p *Pipeline) InFlight() bool {
	return p.guard.InFlight()
}

// SubmitPending runs one rotate-and-send cycle. It is safe to call from
// several goroutines; only one proceeds past the guard, the others return Busy.
func (p *Pipeline) SubmitPending(ctx context.Context) Result {
	if !p.guard.TryEnter() {
		log.Printf("submit: previous submission still in flight, skipping")
		p.metrics.Submission(string(Busy), 0)
		return Result{Outcome: Busy, Err: ErrGuardBusy}
	}
	defer p.guard.Leave()

	res := p.submit(ctx)
	p.metrics.Submission(string(res.Outcome), res.Duration)
	return res
}

func (p *Pipeline) submit(ctx context.Context) Result {
	rotation, err := p.log.Rotate()
	p.metrics.Rotation(string(rotation))
	res := Result{Rotation: rotation}

	switch rotation {
	case eventlog.RotationFailed:
		log.Printf("submit: could not move count to swap, retrying next cycle: %v", err)
		res.Outcome = DeliveryFailed
		res.Err = err
		return res
	case eventlog.NoPendingData:
		p.metrics.PendingBatch(false)
		res.Outcome = NothingToSend
		return res
	case eventlog.AlreadyPending:
		log.Printf("submit: pending batch from a previous attempt, resending")
	}
	p.metrics.PendingBatch(true)

	deviceID, err := p.ident.DeviceID()
	if err != nil {
		res.Outcome = DeliveryFailed
		res.Err = fmt.Errorf("device identity: %w", err)
		log.Printf("submit: %v", res.Err)
		return res
	}

	batch, err := p.log.ReadPending()
	if err != nil {
		res.Outcome = DeliveryFailed
		res.Err = err
		log.Printf("submit: %v", err)
		return res
	}
	res.Records = eventlog.CountRecords(batch)
	res.Bytes = len(batch)

	start := time.Now()
	err = p.sender.Send(ctx, transport.Submission{DeviceID: deviceID, Batch: batch})
	res.Duration = time.Since(start)
	if err != nil {
		res.Outcome = DeliveryFailed
		res.Err = err
		log.Printf("submit: delivery failed, keeping %d records for retry: %v", res.Records, err)
		return res
	}

	res.Outcome = Delivered
	if err := p.log.ClearPending(); err != nil {
		// The batch will be sent again next cycle; a duplicate beats losing track.
		res.Err = err
		log.Printf("submit: delivered %d records but could not remove swap: %v", res.Records, err)
		return res
	}
	p.metrics.PendingBatch(false)
	return res
}
