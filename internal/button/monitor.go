package button

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/input"
	"github.com/sweeney/pushbutton/internal/logic"
)

// monitor is the goroutine watching one opened button.
type monitor struct {
	id     int
	slot   *slot
	dev    input.Device
	tick   time.Duration
	log    logrus.FieldLogger
	cancel context.CancelFunc
	done   chan struct{}
}

// stop cancels the monitor, closes its device to wake a blocked read and
// waits for the goroutine to exit.
func (m *monitor) stop() error {
	m.cancel()
	err := m.dev.Close()
	<-m.done
	return err
}

// run reads the device until the context is cancelled or a read fails.
// After a read failure the slot stays opened; Close still releases it.
func (m *monitor) run(ctx context.Context) {
	defer close(m.done)

	for {
		v, err := m.dev.Next(ctx)
		if err != nil {
			m.exit(ctx, err)
			return
		}
		if v == 0 {
			continue
		}

		h, ok := m.slot.beginPress(m)
		if !ok {
			return
		}
		if err := m.cycle(ctx, h); err != nil {
			m.exit(ctx, err)
			return
		}
	}
}

// cycle drives one press from detection to release.
func (m *monitor) cycle(ctx context.Context, h handlers) error {
	m.log.Debug("pressed")
	if h.pressed != nil {
		h.pressed(0)
	}

	c := logic.NewCycle(h.holdSpec)
	for {
		elapsed, fireHold := c.Tick()

		released, err := m.dev.Wait(ctx, m.tick)
		if err != nil {
			return err
		}

		if released {
			m.slot.endPress(m)
			sec := c.Completed()
			m.log.WithField("seconds", sec).Debug("released")
			if h.released != nil {
				h.released(sec)
			}
			return nil
		}

		if fireHold {
			m.log.WithField("seconds", elapsed).Debug("hold")
			h.hold(elapsed)
		}
	}
}

func (m *monitor) exit(ctx context.Context, err error) {
	if ctx.Err() != nil || errors.Is(err, input.ErrClosed) {
		return
	}
	m.log.WithError(err).Error("read input error, monitoring stopped")
}
