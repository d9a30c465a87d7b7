package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pushbutton/internal/logic"
)

// EventMessage is the websocket representation of a button event.
type EventMessage struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	ID        int    `json:"id"`
	Seconds   int    `json:"seconds"`
	Timestamp string `json:"timestamp"`
}

func formatEvent(ev logic.Event) ([]byte, error) {
	return json.Marshal(EventMessage{
		Type:      "button",
		Event:     string(ev.Type),
		ID:        ev.Button,
		Seconds:   ev.Seconds,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339),
	})
}
