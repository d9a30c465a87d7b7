package button

import (
	"context"
	"sync"

	"github.com/sweeney/pushbutton/internal/logic"
)

// slot is the per-button record. All fields are guarded by mu.
type slot struct {
	mu sync.Mutex

	path    string
	mon     *monitor
	opened  bool
	pressed bool

	onPressed    Callback
	onReleased   Callback
	onHold       Callback
	holdDuration int
}

// handlers is the callback set captured when a press starts.
type handlers struct {
	pressed  Callback
	released Callback
	hold     Callback
	holdSpec logic.HoldSpec
}

// beginPress marks the slot pressed and captures its callbacks, unless m is
// no longer the slot's monitor.
func (s *slot) beginPress(m *monitor) (handlers, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mon != m {
		return handlers{}, false
	}
	s.pressed = true
	return handlers{
		pressed:  s.onPressed,
		released: s.onReleased,
		hold:     s.onHold,
		holdSpec: logic.HoldSpec{Enabled: s.onHold != nil, Duration: s.holdDuration},
	}, true
}

// endPress clears the pressed flag, unless m is no longer the slot's monitor.
func (s *slot) endPress(m *monitor) {
	s.mu.Lock()
	if s.mon == m {
		s.pressed = false
	}
	s.mu.Unlock()
}

// taskCounter counts running monitor goroutines. wait returns once the
// count drops to zero.
type taskCounter struct {
	mu     sync.Mutex
	active int
	idle   chan struct{}
}

func (c *taskCounter) add() {
	c.mu.Lock()
	if c.active == 0 {
		c.idle = make(chan struct{})
	}
	c.active++
	c.mu.Unlock()
}

func (c *taskCounter) done() {
	c.mu.Lock()
	c.active--
	if c.active == 0 {
		close(c.idle)
	}
	c.mu.Unlock()
}

func (c *taskCounter) wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.active == 0 {
			c.mu.Unlock()
			return nil
		}
		idle := c.idle
		c.mu.Unlock()

		select {
		case <-idle:
			// Re-check: a button may have been opened meanwhile.
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
