// Package status provides a thread-safe status tracker for the signal-counter daemon.
// It is read by the HTTP handlers and by the MQTT lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/graze/signal-counter/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Mode       string
	WindowMs   int64
	IntervalMs int64
	Endpoint   string
	Broker     string
	HTTPAddr   string
	LogPath    string
	SwapPath   string
}

// SubmissionCounts tallies submission outcomes since startup.
type SubmissionCounts struct {
	Delivered     int
	Failed        int
	Busy          int
	NothingToSend int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Counts         logic.Counts
	Submissions    SubmissionCounts
	LastOutcome    string
	LastDelivery   time.Time // zero until the first confirmed delivery
	PendingBatch   bool
	PendingRecords int
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	MQTTBuffered   int
	Network        *NetworkInfo
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetCounts replaces the signal counts.
func (t *Tracker) SetCounts(counts logic.Counts) {
	t.mu.Lock()
	t.snap.Counts = counts
	t.mu.Unlock()
}

// RecordSubmission tallies one submission outcome. at is used as the last
// delivery time when outcome is "delivered".
func (t *Tracker) RecordSubmission(outcome string, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch outcome {
	case "delivered":
		t.snap.Submissions.Delivered++
		t.snap.LastDelivery = at
	case "delivery_failed":
		t.snap.Submissions.Failed++
	case "busy":
		t.snap.Submissions.Busy++
		// a skipped attempt says nothing about delivery
		return
	case "nothing_to_send":
		t.snap.Submissions.NothingToSend++
	}
	t.snap.LastOutcome = outcome
}

// SetPending records whether a batch is waiting in the swap slot.
func (t *Tracker) SetPending(pending bool, records int) {
	t.mu.Lock()
	t.snap.PendingBatch = pending
	t.snap.PendingRecords = records
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetMQTTBuffered sets the number of MQTT messages waiting for a connection.
func (t *Tracker) SetMQTTBuffered(n int) {
	t.mu.Lock()
	t.snap.MQTTBuffered = n
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
