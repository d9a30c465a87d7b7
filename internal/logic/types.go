// Package logic contains the pure press/hold/release timing rules.
// This package has NO external dependencies (no device I/O, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// HoldEverySecond is the hold duration that fires the hold callback on every
// elapsed second instead of once.
const HoldEverySecond = 0

// MaxHoldDuration is the largest fixed hold duration, in seconds.
const MaxHoldDuration = 3600

// ErrHoldDuration is returned for hold durations outside [0, MaxHoldDuration].
var ErrHoldDuration = errors.New("hold duration out of range")

// ValidateHoldDuration checks that d is HoldEverySecond or in [1, MaxHoldDuration].
func ValidateHoldDuration(d int) error {
	if d < HoldEverySecond || d > MaxHoldDuration {
		return fmt.Errorf("%w: %d", ErrHoldDuration, d)
	}
	return nil
}

// EventType is the kind of callback a button cycle produced.
type EventType string

const (
	EventPressed  EventType = "PRESSED"
	EventHold     EventType = "HOLD"
	EventReleased EventType = "RELEASED"
)

// Event is a single callback invocation, in the form published and recorded
// by the daemon.
type Event struct {
	Timestamp time.Time
	Button    int
	Type      EventType
	Seconds   int
}

// Counts tracks the number of each event type since startup.
type Counts struct {
	Pressed  int
	Hold     int
	Released int
}

// Add increments the counter matching t.
func (c *Counts) Add(t EventType) {
	switch t {
	case EventPressed:
		c.Pressed++
	case EventHold:
		c.Hold++
	case EventReleased:
		c.Released++
	}
}
