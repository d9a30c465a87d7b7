// Package action implements the daemon's default button behaviour: LED
// feedback and shell commands chosen by how long the button was held.
package action

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/config"
)

// Policy maps button callbacks onto the configured actions.
// Its methods have the button.Callback signature.
type Policy struct {
	actions config.Actions
	led     Controller
	run     Runner
	log     logrus.FieldLogger
}

// NewPolicy creates a Policy. A nil led or run disables that part of an
// action.
func NewPolicy(actions config.Actions, led Controller, run Runner, log logrus.FieldLogger) *Policy {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Policy{
		actions: actions,
		led:     led,
		run:     run,
		log:     log.WithField("component", "action"),
	}
}

// Pressed runs the first press action.
func (p *Policy) Pressed(sec int) {
	if len(p.actions.Press) == 0 {
		return
	}
	p.do(p.actions.Press[0])
}

// Hold runs the hold action whose SEC equals sec. Hold actions are listed
// with descending SEC; the walk stops at the first entry below sec.
func (p *Policy) Hold(sec int) {
	if a, ok := matchHold(p.actions.Hold, sec); ok {
		p.do(a)
	}
}

// Released runs the first release action whose SEC is at most sec, so with
// descending SEC the longest reached threshold wins.
func (p *Policy) Released(sec int) {
	if a, ok := matchRelease(p.actions.Release, sec); ok {
		p.do(a)
	}
}

func matchHold(actions []config.Action, sec int) (config.Action, bool) {
	for _, a := range actions {
		if sec > a.Sec {
			break
		}
		if sec == a.Sec {
			return a, true
		}
	}
	return config.Action{}, false
}

func matchRelease(actions []config.Action, sec int) (config.Action, bool) {
	for _, a := range actions {
		if sec >= a.Sec {
			return a, true
		}
	}
	return config.Action{}, false
}

// do applies one action. Failures are logged and never stop the daemon.
func (p *Policy) do(a config.Action) {
	ctx := context.Background()
	log := p.log.WithFields(logrus.Fields{"sec": a.Sec, "led_group": a.LEDGroup, "led_index": a.LEDIndex})

	if p.led != nil {
		if err := p.led.SetAll(ctx, StateOff); err != nil {
			log.WithError(err).Warn("failed to turn programmable LEDs off")
		}
		if state, err := ParseState(a.LEDState); err != nil {
			log.WithError(err).Warn("skipping LED update")
		} else if err := p.led.Set(ctx, a.LEDGroup, a.LEDIndex, state); err != nil {
			log.WithError(err).Warn("failed to set LED")
		}
	}

	if a.Message != "" {
		log.Info(a.Message)
	}

	cmd := strings.TrimSpace(a.ExecCmd)
	if cmd == "" || p.run == nil {
		return
	}
	out, err := p.run.Run(ctx, cmd)
	if err != nil {
		log.WithError(err).WithField("command", cmd).Error("action command failed")
		return
	}
	log.WithFields(logrus.Fields{"command": cmd, "output": out}).Debug("action command finished")
}
