package action

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// State is a programmable LED state.
type State string

const (
	StateOff   State = "off"
	StateOn    State = "on"
	StateBlink State = "blink"
)

// ParseState accepts "off", "on" and "blink".
func ParseState(s string) (State, error) {
	switch st := State(strings.ToLower(strings.TrimSpace(s))); st {
	case StateOff, StateOn, StateBlink:
		return st, nil
	default:
		return "", fmt.Errorf("unknown LED state %q", s)
	}
}

// Controller drives the programmable LEDs.
type Controller interface {
	// Set changes one LED, addressed by group and index.
	Set(ctx context.Context, group, index int, state State) error
	// SetAll changes every programmable LED.
	SetAll(ctx context.Context, state State) error
}

// CommandController drives LEDs through the platform's mx-led-ctl tool.
type CommandController struct {
	Path string
}

// NewCommandController creates a CommandController for the tool at path.
func NewCommandController(path string) *CommandController {
	return &CommandController{Path: path}
}

// Set runs "<path> -p <group> -i <index> <state>".
func (c *CommandController) Set(ctx context.Context, group, index int, state State) error {
	return c.exec(ctx, "-p", strconv.Itoa(group), "-i", strconv.Itoa(index), string(state))
}

// SetAll runs "<path> --all-programmable <state>".
func (c *CommandController) SetAll(ctx context.Context, state State) error {
	return c.exec(ctx, "--all-programmable", string(state))
}

func (c *CommandController) exec(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", cmd.String(), err, strings.TrimSpace(string(out)))
	}
	return nil
}
