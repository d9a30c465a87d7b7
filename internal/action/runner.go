package action

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executes an action's shell command.
type Runner interface {
	Run(ctx context.Context, command string) (string, error)
}

// ExecRunner runs commands with "<Shell> -c <command>".
type ExecRunner struct {
	Shell string
	// Timeout bounds each command. Zero means no limit.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner using shell, or /bin/sh if empty.
func NewExecRunner(shell string) *ExecRunner {
	if shell == "" {
		shell = "/bin/sh"
	}
	return &ExecRunner{Shell: shell}
}

// Run executes command and returns its combined output.
func (r *ExecRunner) Run(ctx context.Context, command string) (string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, r.Shell, "-c", command).CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		return output, fmt.Errorf("running %q: %w", command, err)
	}
	return output, nil
}
