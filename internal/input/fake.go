package input

import (
	"context"
	"sync"
	"time"
)

// Step is one scripted outcome consumed by a FakeDevice read.
type Step struct {
	// Value is the leading event value returned by Next.
	Value int32
	// Timeout makes Wait report no input. Next skips timeout steps.
	Timeout bool
	// Err, if set, is returned by the read that consumes the step.
	Err error
}

// Press is a step carrying a non-zero (pressed) event value.
func Press() Step { return Step{Value: 1} }

// Release is a step carrying a zero (released) event value.
func Release() Step { return Step{Value: 0} }

// Timeouts returns n timeout steps: the button stays down for n seconds.
func Timeouts(n int) []Step {
	steps := make([]Step, n)
	for i := range steps {
		steps[i].Timeout = true
	}
	return steps
}

// FakeDevice is a test double driven by scripted steps.
// With no steps queued, reads block like an idle button until the device is
// closed or the context is cancelled.
type FakeDevice struct {
	steps chan Step
	done  chan struct{}
	once  sync.Once

	mu     sync.Mutex
	closed bool
}

// NewFakeDevice creates an idle FakeDevice.
func NewFakeDevice() *FakeDevice {
	return &FakeDevice{
		steps: make(chan Step, 1024),
		done:  make(chan struct{}),
	}
}

// Feed queues steps in order.
func (f *FakeDevice) Feed(steps ...Step) {
	for _, s := range steps {
		f.steps <- s
	}
}

// Next consumes steps until one that is not a timeout.
func (f *FakeDevice) Next(ctx context.Context) (int32, error) {
	for {
		select {
		case s := <-f.steps:
			if s.Err != nil {
				return 0, s.Err
			}
			if s.Timeout {
				continue
			}
			return s.Value, nil
		case <-f.done:
			return 0, ErrClosed
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Wait consumes one step. The timeout argument is ignored: time only passes
// when a Timeout step is consumed.
func (f *FakeDevice) Wait(ctx context.Context, _ time.Duration) (bool, error) {
	select {
	case s := <-f.steps:
		if s.Err != nil {
			return false, s.Err
		}
		return !s.Timeout, nil
	case <-f.done:
		return false, ErrClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close marks the device as closed and wakes blocked reads.
func (f *FakeDevice) Close() error {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

// Closed reports whether Close was called.
func (f *FakeDevice) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeOpener hands out one FakeDevice per path.
type FakeOpener struct {
	// OpenError, if set, will be returned by Open.
	OpenError error

	mu      sync.Mutex
	devices map[string]*FakeDevice
	opens   []string
}

// NewFakeOpener creates an empty FakeOpener.
func NewFakeOpener() *FakeOpener {
	return &FakeOpener{devices: make(map[string]*FakeDevice)}
}

// Open returns a fresh FakeDevice for path, replacing any closed one.
func (o *FakeOpener) Open(path string) (Device, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.OpenError != nil {
		return nil, o.OpenError
	}
	o.opens = append(o.opens, path)
	d, ok := o.devices[path]
	if !ok || d.Closed() {
		d = NewFakeDevice()
		o.devices[path] = d
	}
	return d, nil
}

// Device returns the device most recently opened for path, or nil.
func (o *FakeOpener) Device(path string) *FakeDevice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.devices[path]
}

// Opens returns the paths passed to Open, in order.
func (o *FakeOpener) Opens() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.opens...)
}
