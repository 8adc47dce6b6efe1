// Package mqtt publishes lifecycle and delivery notifications with abstraction for testing.
// MQTT is a side channel: the collector endpoint remains the system of record.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for submission reports.
const Topic = "signal-counter/submissions"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "signal-counter/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a submission report to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(report Report) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active and how
// many messages are waiting for it.
type ConnectionStatus interface {
	IsConnected() bool
	Buffered() int
}

// Report describes the outcome of a submission that reached the transport.
type Report struct {
	Timestamp time.Time
	Outcome   string // "delivered" or "delivery_failed"
	Records   int
	Bytes     int
	Duration  time.Duration
	Error     string
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Submission SubmissionPayload `json:"submission"`
}

// SubmissionPayload contains the submission details.
type SubmissionPayload struct {
	Timestamp  string `json:"timestamp"`
	Outcome    string `json:"outcome"`
	Records    int    `json:"records"`
	Bytes      int    `json:"bytes"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// FormatPayload creates the JSON payload for a submission report.
func FormatPayload(report Report) ([]byte, error) {
	payload := Payload{
		Submission: SubmissionPayload{
			Timestamp:  report.Timestamp.UTC().Format(time.RFC3339),
			Outcome:    report.Outcome,
			Records:    report.Records,
			Bytes:      report.Bytes,
			DurationMs: report.Duration.Milliseconds(),
			Error:      report.Error,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
