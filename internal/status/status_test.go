package status

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/graze/signal-counter/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Mode: "paired", WindowMs: 300, IntervalMs: 1000, HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.WindowMs != 300 {
		t.Errorf("Config.WindowMs: got %d, want 300", snap.Config.WindowMs)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if snap.PendingBatch {
		t.Error("expected PendingBatch=false initially")
	}
	if !snap.LastDelivery.IsZero() {
		t.Error("expected zero LastDelivery initially")
	}
}

func TestSetCounts(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetCounts(logic.Counts{Recorded: 7, Rejected: 3, Lost: 1})

	if got := tr.Snapshot().Counts; got != (logic.Counts{Recorded: 7, Rejected: 3, Lost: 1}) {
		t.Errorf("Counts: got %+v", got)
	}
}

func TestRecordSubmission(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordSubmission("nothing_to_send", at)
	tr.RecordSubmission("delivery_failed", at)
	tr.RecordSubmission("delivered", at)
	tr.RecordSubmission("busy", at.Add(time.Second))

	snap := tr.Snapshot()
	want := SubmissionCounts{Delivered: 1, Failed: 1, Busy: 1, NothingToSend: 1}
	if snap.Submissions != want {
		t.Errorf("Submissions: got %+v, want %+v", snap.Submissions, want)
	}
	if !snap.LastDelivery.Equal(at) {
		t.Errorf("LastDelivery: got %v, want %v", snap.LastDelivery, at)
	}
	if snap.LastOutcome != "delivered" {
		t.Errorf("LastOutcome: got %q, busy should not replace it", snap.LastOutcome)
	}
}

func TestSetPending(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetPending(true, 4)
	snap := tr.Snapshot()
	if !snap.PendingBatch || snap.PendingRecords != 4 {
		t.Errorf("pending: got %v/%d", snap.PendingBatch, snap.PendingRecords)
	}

	tr.SetPending(false, 0)
	if tr.Snapshot().PendingBatch {
		t.Error("expected PendingBatch=false")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetMQTTBuffered(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetMQTTBuffered(12)
	if got := tr.Snapshot().MQTTBuffered; got != 12 {
		t.Errorf("MQTTBuffered: got %d, want 12", got)
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.MQTT.Buffered != 12 {
		t.Errorf("JSON buffered: got %d", parsed.Status.MQTT.Buffered)
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"})

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{StartTime: start, Now: start.Add(15 * time.Minute)}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetCounts(logic.Counts{Recorded: 1})

	snap1 := tr.Snapshot()
	tr.SetCounts(logic.Counts{Recorded: 2})

	if snap1.Counts.Recorded != 1 {
		t.Error("snapshot should be a copy; Counts was modified")
	}
}

func testSnapshot() Snapshot {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Counts:         logic.Counts{Recorded: 5, Rejected: 2},
		Submissions:    SubmissionCounts{Delivered: 3, Failed: 1},
		LastOutcome:    "delivered",
		LastDelivery:   start.Add(10 * time.Minute),
		PendingBatch:   true,
		PendingRecords: 2,
		StartTime:      start,
		Now:            start.Add(15 * time.Minute),
		MQTTConnected:  true,
		Config: Config{
			Mode:       "paired",
			WindowMs:   300,
			IntervalMs: 1000,
			Endpoint:   "http://collector.local/counts",
			Broker:     "tcp://localhost:1883",
			LogPath:    "/var/lib/signalCounter/count",
			SwapPath:   "/tmp/signalCounterCount.swp",
		},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.Signals.Recorded != 5 || s.Signals.Rejected != 2 {
		t.Errorf("Signals: got %+v", s.Signals)
	}
	if s.Submissions.Delivered != 3 || s.Submissions.Failed != 1 {
		t.Errorf("Submissions: got %+v", s.Submissions)
	}
	if s.Submissions.LastDelivery != "2026-01-01T00:10:00Z" {
		t.Errorf("LastDelivery: got %q", s.Submissions.LastDelivery)
	}
	if !s.Pending.Exists || s.Pending.Records != 2 {
		t.Errorf("Pending: got %+v", s.Pending)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Config.Mode != "paired" || s.Config.SwapPath != "/tmp/signalCounterCount.swp" {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason for web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONOmitsLastDeliveryBeforeFirst(t *testing.T) {
	snap := testSnapshot()
	snap.LastDelivery = time.Time{}

	if strings.Contains(string(FormatJSON(snap)), "last_delivery") {
		t.Error("last_delivery should be omitted before the first delivery")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("status events should be compact")
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := testSnapshot()
	snap.Network = &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.SetCounts(logic.Counts{Recorded: i})
			tr.RecordSubmission("delivered", time.Now())
			tr.SetPending(i%2 == 0, i)
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = FormatJSON(tr.Snapshot())
		}
	}()

	wg.Wait()
}
