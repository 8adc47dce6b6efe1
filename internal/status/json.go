package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string          `json:"event,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	StartTime     string          `json:"start_time"`
	Timestamp     string          `json:"timestamp"`
	Signals       SignalsJSON     `json:"signals"`
	Submissions   SubmissionsJSON `json:"submissions"`
	Pending       PendingJSON     `json:"pending"`
	MQTT          MQTTStatus      `json:"mqtt"`
	Network       *NetworkJSON    `json:"network,omitempty"`
	Config        ConfigJSON      `json:"config"`
}

// SignalsJSON is the JSON representation of signal counts.
type SignalsJSON struct {
	Recorded int `json:"recorded"`
	Rejected int `json:"rejected"`
	Lost     int `json:"lost"`
}

// SubmissionsJSON is the JSON representation of submission outcomes.
type SubmissionsJSON struct {
	Delivered     int    `json:"delivered"`
	Failed        int    `json:"failed"`
	Busy          int    `json:"busy"`
	NothingToSend int    `json:"nothing_to_send"`
	LastOutcome   string `json:"last_outcome,omitempty"`
	LastDelivery  string `json:"last_delivery,omitempty"`
}

// PendingJSON describes the batch waiting in the swap slot.
type PendingJSON struct {
	Exists  bool `json:"exists"`
	Records int  `json:"records"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Buffered  int    `json:"buffered"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Mode       string `json:"mode"`
	WindowMs   int64  `json:"window_ms"`
	IntervalMs int64  `json:"interval_ms"`
	Endpoint   string `json:"endpoint"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
	LogPath    string `json:"log_path"`
	SwapPath   string `json:"swap_path"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Signals: SignalsJSON{
			Recorded: snap.Counts.Recorded,
			Rejected: snap.Counts.Rejected,
			Lost:     snap.Counts.Lost,
		},
		Submissions: SubmissionsJSON{
			Delivered:     snap.Submissions.Delivered,
			Failed:        snap.Submissions.Failed,
			Busy:          snap.Submissions.Busy,
			NothingToSend: snap.Submissions.NothingToSend,
			LastOutcome:   snap.LastOutcome,
		},
		Pending: PendingJSON{Exists: snap.PendingBatch, Records: snap.PendingRecords},
		MQTT:    MQTTStatus{Connected: snap.MQTTConnected, Buffered: snap.MQTTBuffered, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Mode:       snap.Config.Mode,
			WindowMs:   snap.Config.WindowMs,
			IntervalMs: snap.Config.IntervalMs,
			Endpoint:   snap.Config.Endpoint,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
			LogPath:    snap.Config.LogPath,
			SwapPath:   snap.Config.SwapPath,
		},
	}
	if !snap.LastDelivery.IsZero() {
		inner.Submissions.LastDelivery = snap.LastDelivery.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
