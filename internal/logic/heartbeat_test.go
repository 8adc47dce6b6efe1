package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeatTimer(start)

	if hb := h.Check(start.Add(time.Hour), 0); hb != nil {
		t.Errorf("expected nil when interval is 0, got %+v", hb)
	}
	if hb := h.Check(start.Add(time.Hour), -time.Second); hb != nil {
		t.Errorf("expected nil when interval is negative, got %+v", hb)
	}
}

func TestHeartbeatInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	h := NewHeartbeatTimer(start)
	interval := 15 * time.Minute

	if hb := h.Check(start.Add(14*time.Minute), interval); hb != nil {
		t.Error("expected no heartbeat before interval")
	}

	hb := h.Check(start.Add(15*time.Minute), interval)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", hb.Uptime)
	}
	if !hb.Timestamp.Equal(start.Add(15 * time.Minute)) {
		t.Errorf("Timestamp: got %v", hb.Timestamp)
	}

	// Next interval is measured from the last heartbeat.
	if hb := h.Check(start.Add(29*time.Minute), interval); hb != nil {
		t.Error("expected no heartbeat 14m after previous one")
	}
	hb = h.Check(start.Add(30*time.Minute), interval)
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 30*time.Minute {
		t.Errorf("Uptime: got %v, want 30m", hb.Uptime)
	}
}
