package logic

import "time"

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
}

// HeartbeatTimer decides when the main loop should emit a heartbeat.
// Not safe for concurrent use; it belongs to the main loop.
type HeartbeatTimer struct {
	startTime     time.Time
	lastHeartbeat time.Time
}

// NewHeartbeatTimer creates a timer whose first interval starts at startTime.
func NewHeartbeatTimer(startTime time.Time) *HeartbeatTimer {
	return &HeartbeatTimer{startTime: startTime, lastHeartbeat: startTime}
}

// Check returns heartbeat data if the interval has elapsed since the last
// heartbeat (or startup). Returns nil if the interval has not elapsed or if
// interval is <= 0 (disabled).
func (h *HeartbeatTimer) Check(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(h.lastHeartbeat) < interval {
		return nil
	}

	h.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
	}
}
