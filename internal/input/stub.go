//go:build !linux

package input

import (
	"context"
	"time"
)

// EventFile is not available on non-Linux platforms.
type EventFile struct{}

// OpenEventFile returns an error on non-Linux platforms.
func OpenEventFile(path string) (*EventFile, error) {
	return nil, ErrUnsupported
}

// Next is not implemented on non-Linux platforms.
func (e *EventFile) Next(ctx context.Context) (int32, error) {
	return 0, ErrUnsupported
}

// Wait is not implemented on non-Linux platforms.
func (e *EventFile) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	return false, ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (e *EventFile) Close() error {
	return nil
}

// Line is not available on non-Linux platforms.
type Line struct{}

// OpenLine returns an error on non-Linux platforms.
func OpenLine(spec LineSpec) (*Line, error) {
	return nil, ErrUnsupported
}

// Next is not implemented on non-Linux platforms.
func (l *Line) Next(ctx context.Context) (int32, error) {
	return 0, ErrUnsupported
}

// Wait is not implemented on non-Linux platforms.
func (l *Line) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	return false, ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *Line) Close() error {
	return nil
}
