//go:build linux

package input

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// lineQueueSize bounds the number of edges buffered between reads.
const lineQueueSize = 64

// Line reads a button wired directly to a GPIO line using the Linux GPIO
// character device. Edges are delivered as values: 1 when the line becomes
// active (pressed), 0 when it becomes inactive.
type Line struct {
	line   *gpiocdev.Line
	events chan int32
	done   chan struct{}
	once   sync.Once
}

// OpenLine requests spec's line as an input with pull-up and edge detection
// on both edges. The kernel grants the line to one requester at a time.
func OpenLine(spec LineSpec) (*Line, error) {
	l := &Line{
		events: make(chan int32, lineQueueSize),
		done:   make(chan struct{}),
	}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(l.handleEvent),
	}
	if !spec.ActiveHigh {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := gpiocdev.RequestLine(spec.Chip, spec.Offset, opts...)
	if err != nil {
		return nil, fmt.Errorf("request %s line %d: %w", spec.Chip, spec.Offset, err)
	}
	l.line = line
	return l, nil
}

func (l *Line) handleEvent(evt gpiocdev.LineEvent) {
	var v int32
	if evt.Type == gpiocdev.LineEventRisingEdge {
		v = 1
	}
	select {
	case l.events <- v:
	default:
		// Queue full: nobody is reading, drop the edge.
	}
}

// Next blocks until the next edge.
func (l *Line) Next(ctx context.Context) (int32, error) {
	select {
	case v := <-l.events:
		return v, nil
	case <-l.done:
		return 0, ErrClosed
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Wait waits up to timeout for the next edge.
func (l *Line) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.events:
		return true, nil
	case <-timer.C:
		return false, nil
	case <-l.done:
		return false, ErrClosed
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close releases the line.
func (l *Line) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if l.line != nil {
			err = l.line.Close()
		}
	})
	return err
}
