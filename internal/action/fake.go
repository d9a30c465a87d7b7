package action

import (
	"context"
	"fmt"
	"sync"
)

// FakeController records LED changes for testing.
type FakeController struct {
	// SetError, if set, will be returned by Set.
	SetError error

	mu    sync.Mutex
	calls []string
}

// NewFakeController creates a FakeController.
func NewFakeController() *FakeController {
	return &FakeController{}
}

// Set records "set <group>/<index> <state>".
func (f *FakeController) Set(_ context.Context, group, index int, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("set %d/%d %s", group, index, state))
	return f.SetError
}

// SetAll records "all <state>".
func (f *FakeController) SetAll(_ context.Context, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("all %s", state))
	return nil
}

// Calls returns recorded calls in order.
func (f *FakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// FakeRunner records commands for testing.
type FakeRunner struct {
	// RunError, if set, will be returned by Run.
	RunError error

	mu       sync.Mutex
	commands []string
}

// NewFakeRunner creates a FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{}
}

// Run records command.
func (f *FakeRunner) Run(_ context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	return "", f.RunError
}

// Commands returns recorded commands in order.
func (f *FakeRunner) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}
