// Package status provides a thread-safe status tracker for the pbtnd daemon.
// It is read by the HTTP handlers and the MQTT startup/shutdown messages.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pushbutton/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	ButtonConfig string
	Broker       string
	TopicPrefix  string
	HTTPAddr     string
}

// ButtonState is the daemon's view of one button.
type ButtonState struct {
	ID        int
	Path      string
	Opened    bool
	Pressed   bool
	Counts    logic.Counts
	LastEvent *logic.Event
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Buttons       []ButtonState
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
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

// NewTracker creates a Tracker for buttons global ids 0..n-1.
func NewTracker(startTime time.Time, cfg Config, n int) *Tracker {
	buttons := make([]ButtonState, n)
	for i := range buttons {
		buttons[i].ID = i
	}
	return &Tracker{
		snap: Snapshot{
			Buttons:   buttons,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetButton records whether button id is monitored and by which device.
// Closing a button clears its pressed flag.
func (t *Tracker) SetButton(id int, path string, opened bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id < 0 || id >= len(t.snap.Buttons) {
		return
	}
	b := &t.snap.Buttons[id]
	b.Path = path
	b.Opened = opened
	if !opened {
		b.Pressed = false
	}
}

// Record applies a button event: it bumps the counters, tracks the pressed
// flag and remembers the event as the button's last one.
// Events for unknown buttons are ignored.
func (t *Tracker) Record(ev logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ev.Button < 0 || ev.Button >= len(t.snap.Buttons) {
		return
	}
	b := &t.snap.Buttons[ev.Button]
	b.Counts.Add(ev.Type)
	t.snap.Counts.Add(ev.Type)

	switch ev.Type {
	case logic.EventPressed, logic.EventHold:
		b.Pressed = true
	case logic.EventReleased:
		b.Pressed = false
	}
	last := ev
	b.LastEvent = &last
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = make([]ButtonState, len(t.snap.Buttons))
	for i, b := range t.snap.Buttons {
		if b.LastEvent != nil {
			ev := *b.LastEvent
			b.LastEvent = &ev
		}
		s.Buttons[i] = b
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
