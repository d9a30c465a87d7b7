package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pushbutton/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Buttons       []ButtonJSON `json:"buttons"`
	Config        ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Pressed  int `json:"pressed"`
	Hold     int `json:"hold"`
	Released int `json:"released"`
}

// ButtonJSON is the JSON representation of one button.
type ButtonJSON struct {
	ID        int            `json:"id"`
	Path      string         `json:"path,omitempty"`
	Opened    bool           `json:"opened"`
	Pressed   bool           `json:"pressed"`
	Counts    CountsJSON     `json:"event_counts"`
	LastEvent *LastEventJSON `json:"last_event,omitempty"`
}

// LastEventJSON is the most recent event of a button.
type LastEventJSON struct {
	Event     string `json:"event"`
	Seconds   int    `json:"seconds"`
	Timestamp string `json:"timestamp"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ButtonConfig string `json:"button_config"`
	Broker       string `json:"broker,omitempty"`
	TopicPrefix  string `json:"topic_prefix,omitempty"`
	HTTPAddr     string `json:"http_addr,omitempty"`
}

func countsJSON(c logic.Counts) CountsJSON {
	return CountsJSON{Pressed: c.Pressed, Hold: c.Hold, Released: c.Released}
}

func buildInner(snap Snapshot) StatusInner {
	buttons := make([]ButtonJSON, len(snap.Buttons))
	for i, b := range snap.Buttons {
		buttons[i] = ButtonJSON{
			ID:      b.ID,
			Path:    b.Path,
			Opened:  b.Opened,
			Pressed: b.Pressed,
			Counts:  countsJSON(b.Counts),
		}
		if b.LastEvent != nil {
			buttons[i].LastEvent = &LastEventJSON{
				Event:     string(b.LastEvent.Type),
				Seconds:   b.LastEvent.Seconds,
				Timestamp: b.LastEvent.Timestamp.UTC().Format(time.RFC3339),
			}
		}
	}

	return StatusInner{
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        countsJSON(snap.Counts),
		Buttons:       buttons,
		Config: ConfigJSON{
			ButtonConfig: snap.Config.ButtonConfig,
			Broker:       snap.Config.Broker,
			TopicPrefix:  snap.Config.TopicPrefix,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
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
