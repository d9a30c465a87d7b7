// Package input provides push-button device access with hardware abstraction.
// The real implementations read Linux input-event device files and GPIO
// character device lines. The fake implementation allows testing without hardware.
package input

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Device is an open push-button device.
type Device interface {
	// Next blocks until the next batch of input events arrives and returns
	// the value of the leading event. It returns ctx.Err() once ctx is done.
	Next(ctx context.Context) (int32, error)

	// Wait blocks for at most timeout waiting for further input.
	// It reports true if input arrived, false on timeout.
	Wait(ctx context.Context, timeout time.Duration) (bool, error)

	// Close releases the device. A blocked Next or Wait returns promptly.
	Close() error
}

// Opener opens the device behind a configured path.
type Opener func(path string) (Device, error)

var (
	// ErrShortRead is returned when a read yields less than one full event record.
	ErrShortRead = errors.New("input: short read")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("input: device closed")

	// ErrUnsupported is returned on platforms without input device support.
	ErrUnsupported = errors.New("input: not supported on this platform (requires Linux)")
)

// linePrefix marks a GPIO line path, e.g. "gpiochip0:17".
const linePrefix = "gpiochip"

// LineSpec identifies a GPIO line used as a button.
type LineSpec struct {
	Chip       string
	Offset     int
	ActiveHigh bool
}

// IsLinePath reports whether path names a GPIO line rather than a device file.
func IsLinePath(path string) bool {
	return strings.HasPrefix(path, linePrefix)
}

// ParseLinePath parses "gpiochipN:offset[:active-high]".
// Lines default to active-low, the usual wiring for a button with pull-up.
func ParseLinePath(path string) (LineSpec, error) {
	parts := strings.Split(path, ":")
	if len(parts) < 2 || len(parts) > 3 || !IsLinePath(parts[0]) {
		return LineSpec{}, fmt.Errorf("invalid gpio line path %q", path)
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return LineSpec{}, fmt.Errorf("invalid gpio line offset in %q", path)
	}
	spec := LineSpec{Chip: parts[0], Offset: offset}
	if len(parts) == 3 {
		switch parts[2] {
		case "active-high":
			spec.ActiveHigh = true
		case "active-low":
		default:
			return LineSpec{}, fmt.Errorf("invalid gpio line polarity %q", parts[2])
		}
	}
	return spec, nil
}

// Open opens the device behind path: a GPIO line for "gpiochip..." paths,
// an input-event device file otherwise.
func Open(path string) (Device, error) {
	if IsLinePath(path) {
		spec, err := ParseLinePath(path)
		if err != nil {
			return nil, err
		}
		d, err := OpenLine(spec)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	d, err := OpenEventFile(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}
