// Package button monitors push buttons exposed as input devices and invokes
// registered callbacks when a button is pressed, held or released.
//
// A Registry owns one slot per configured button. Opening a slot starts a
// monitor goroutine that reads the button's device; closing it stops the
// goroutine and releases the device. Callbacks run on the monitor goroutine
// of their button, so a slow callback delays that button's timing but no
// other.
package button

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/config"
	"github.com/sweeney/pushbutton/internal/input"
	"github.com/sweeney/pushbutton/internal/logic"
)

// Type selects the button group a 1-based index refers to.
type Type = config.ButtonType

const (
	TypeSystem = config.TypeSystem
	TypeUser   = config.TypeUser
)

// HoldEverySecond registers a hold callback that fires on every held second.
const HoldEverySecond = logic.HoldEverySecond

// DefaultHoldTick is the poll interval of a held button and the unit of all
// reported seconds.
const DefaultHoldTick = time.Second

// Callback receives the elapsed whole seconds of a press.
type Callback func(seconds int)

// Accessor supplies the button layout. *config.ButtonConfig implements it.
type Accessor interface {
	ButtonCount() int
	SystemCount() int
	DevicePath(t config.ButtonType, index int) (string, error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithOpener replaces the device opener (input.Open by default).
func WithOpener(open input.Opener) Option {
	return func(r *Registry) { r.open = open }
}

// WithLogger sets the logger used for monitor diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = l }
}

// WithHoldTick overrides the hold poll interval.
func WithHoldTick(d time.Duration) Option {
	return func(r *Registry) { r.tick = d }
}

// SlotStatus is a point-in-time view of one button slot.
type SlotStatus struct {
	ID      int
	Path    string
	Opened  bool
	Pressed bool
}

// Registry is the table of button slots.
// All methods are safe for concurrent use.
type Registry struct {
	acc   Accessor
	open  input.Opener
	log   logrus.FieldLogger
	tick  time.Duration
	slots []*slot
	tasks taskCounter
}

// New creates a Registry with one closed slot per configured button.
func New(acc Accessor, opts ...Option) (*Registry, error) {
	if acc == nil {
		return nil, fmt.Errorf("%w: no button configuration", ErrConfig)
	}
	n := acc.ButtonCount()
	if n < 0 {
		return nil, fmt.Errorf("%w: invalid button count %d", ErrConfig, n)
	}

	r := &Registry{
		acc:  acc,
		open: input.Open,
		log:  logrus.StandardLogger(),
		tick: DefaultHoldTick,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.slots = make([]*slot, n)
	for i := range r.slots {
		r.slots[i] = &slot{}
	}
	return r, nil
}

// Len returns the number of button slots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.slots)
}

// Open starts monitoring the index-th (1-based) button of type t and returns
// its global id. Opening an open button returns its id and changes nothing.
func (r *Registry) Open(t Type, index int) (int, error) {
	if r == nil {
		return -1, ErrNotInitialized
	}

	id, err := r.resolve(t, index)
	if err != nil {
		return -1, err
	}
	s := r.slots[id]

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return id, nil
	}

	path, err := r.acc.DevicePath(t, index)
	if err != nil {
		return -1, fmt.Errorf("%w: button %d: %w", ErrConfig, id, err)
	}

	dev, err := r.open(path)
	if err != nil {
		return -1, fmt.Errorf("%w: %w", ErrIO, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &monitor{
		id:     id,
		slot:   s,
		dev:    dev,
		tick:   r.tick,
		log:    r.log.WithField("button", id),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.path = path
	s.mon = m
	s.opened = true
	s.pressed = false

	r.tasks.add()
	go func() {
		defer r.tasks.done()
		m.run(ctx)
	}()

	r.log.WithFields(logrus.Fields{"button": id, "path": path}).Debug("button opened")
	return id, nil
}

// Close stops monitoring button id, releases its device and clears its
// callbacks. Closing a closed button is a no-op. Close must not be called
// from a callback of the same button.
func (r *Registry) Close(id int) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.opened {
		s.mu.Unlock()
		return nil
	}
	m := s.mon
	s.mon = nil
	s.opened = false
	s.pressed = false
	s.onPressed = nil
	s.onReleased = nil
	s.onHold = nil
	s.holdDuration = HoldEverySecond
	s.mu.Unlock()

	err = m.stop()
	r.log.WithField("button", id).Debug("button closed")
	if err != nil {
		return fmt.Errorf("%w: close button %d: %w", ErrIO, id, err)
	}
	return nil
}

// CloseAll closes every open button.
func (r *Registry) CloseAll() error {
	if r == nil {
		return ErrNotInitialized
	}
	var firstErr error
	for id := range r.slots {
		if err := r.Close(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Wait blocks until the monitor goroutine of every opened button has
// terminated, either through Close or a fatal device error. Buttons opened
// while Wait is blocked are waited upon as well.
func (r *Registry) Wait(ctx context.Context) error {
	if r == nil {
		return ErrNotInitialized
	}
	return r.tasks.wait(ctx)
}

// IsPressed reports whether button id is currently inside a press.
func (r *Registry) IsPressed(id int) (bool, error) {
	s, err := r.slot(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return false, fmt.Errorf("%w: button %d", ErrButtonNotOpen, id)
	}
	return s.pressed, nil
}

// Status returns a snapshot of button id.
func (r *Registry) Status(id int) (SlotStatus, error) {
	s, err := r.slot(id)
	if err != nil {
		return SlotStatus{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return SlotStatus{
		ID:      id,
		Path:    s.path,
		Opened:  s.opened,
		Pressed: s.pressed,
	}, nil
}

// OnPressed registers fn to run with 0 when a press starts.
// A nil fn removes the callback. It takes effect from the next press.
func (r *Registry) OnPressed(id int, fn Callback) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.onPressed = fn
	s.mu.Unlock()
	return nil
}

// OnReleased registers fn to run with the completed hold seconds on release.
func (r *Registry) OnReleased(id int, fn Callback) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.onReleased = fn
	s.mu.Unlock()
	return nil
}

// OnHold registers fn to run while the button is held. With duration
// HoldEverySecond fn runs every second with the elapsed seconds; otherwise it
// runs once, when the button has been held for duration seconds.
func (r *Registry) OnHold(id int, fn Callback, duration int) error {
	s, err := r.slot(id)
	if err != nil {
		return err
	}
	if err := logic.ValidateHoldDuration(duration); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	s.mu.Lock()
	s.onHold = fn
	s.holdDuration = duration
	s.mu.Unlock()
	return nil
}

// resolve maps a type and 1-based index onto a global slot id.
func (r *Registry) resolve(t Type, index int) (int, error) {
	if index < 1 {
		return -1, fmt.Errorf("%w: button index %d", ErrInvalidArgument, index)
	}
	id := index - 1
	var count int
	switch t {
	case TypeSystem:
		count = r.acc.SystemCount()
	case TypeUser:
		count = r.acc.ButtonCount() - r.acc.SystemCount()
		id += r.acc.SystemCount()
	default:
		return -1, fmt.Errorf("%w: button type %d", ErrInvalidArgument, t)
	}
	if index > count {
		return -1, fmt.Errorf("%w: button %s %d, have %d %s buttons",
			ErrInvalidArgument, t, index, count, t)
	}
	if id < 0 || id >= len(r.slots) {
		return -1, fmt.Errorf("%w: button %s %d resolves to id %d, have %d buttons",
			ErrInvalidArgument, t, index, id, len(r.slots))
	}
	return id, nil
}

func (r *Registry) slot(id int) (*slot, error) {
	if r == nil {
		return nil, ErrNotInitialized
	}
	if id < 0 || id >= len(r.slots) {
		return nil, fmt.Errorf("%w: button id %d out of range [0, %d)", ErrInvalidArgument, id, len(r.slots))
	}
	return r.slots[id], nil
}
