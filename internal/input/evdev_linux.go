//go:build linux

package input

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"
)

// batchSize is the number of event records requested per read.
const batchSize = 64

// recordSize is the size of one kernel input_event record.
var recordSize = binary.Size(evdev.InputEvent{})

// EventFile reads a Linux input-event device file (/dev/input/eventN).
//
// The file stays registered with the runtime poller, so read deadlines are
// used both for the hold poll timeout and to abort a blocked read when the
// caller's context is cancelled.
type EventFile struct {
	f   *os.File
	buf []byte
}

// OpenEventFile opens path read-only and takes an exclusive advisory lock on
// it. Taking the lock blocks while another process holds it.
func OpenEventFile(path string) (*EventFile, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	return newEventFile(f), nil
}

func newEventFile(f *os.File) *EventFile {
	return &EventFile{
		f:   f,
		buf: make([]byte, recordSize*batchSize),
	}
}

// lockExclusive flocks f without calling f.Fd(), which would switch the
// file to blocking mode and disable deadlines.
func lockExclusive(f *os.File) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var lockErr error
	if err := rc.Control(func(fd uintptr) {
		lockErr = unix.Flock(int(fd), unix.LOCK_EX)
	}); err != nil {
		return err
	}
	return lockErr
}

// Next blocks until a batch of events is read and returns the leading value.
func (e *EventFile) Next(ctx context.Context) (int32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := e.f.SetReadDeadline(time.Time{}); err != nil {
		return 0, fmt.Errorf("clear deadline: %w", err)
	}
	return e.read(ctx)
}

// Wait waits up to timeout for another batch of events.
func (e *EventFile) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := e.f.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return false, fmt.Errorf("set deadline: %w", err)
	}
	_, err := e.read(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return false, nil
	default:
		return false, err
	}
}

func (e *EventFile) read(ctx context.Context) (int32, error) {
	stop := context.AfterFunc(ctx, func() {
		// A deadline in the past wakes the pending Read.
		_ = e.f.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := e.f.Read(e.buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		if errors.Is(err, os.ErrClosed) {
			return 0, ErrClosed
		}
		return 0, err
	}
	if n < recordSize {
		return 0, fmt.Errorf("%w: got %d bytes, want at least %d", ErrShortRead, n, recordSize)
	}

	var ev evdev.InputEvent
	if err := binary.Read(bytes.NewReader(e.buf[:recordSize]), binary.NativeEndian, &ev); err != nil {
		return 0, fmt.Errorf("decode event: %w", err)
	}
	return ev.Value, nil
}

// Close closes the file, which also drops the advisory lock.
func (e *EventFile) Close() error {
	if err := e.f.Close(); err != nil {
		if errors.Is(err, os.ErrClosed) {
			return nil
		}
		return err
	}
	return nil
}
