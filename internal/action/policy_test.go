package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sweeney/pushbutton/internal/config"
)

func testActions() config.Actions {
	return config.Actions{
		Press: []config.Action{
			{LEDGroup: 1, LEDIndex: 1, LEDState: "on", Message: "button pressed"},
			{LEDGroup: 9, LEDIndex: 9, LEDState: "on", ExecCmd: "never"},
		},
		Hold: []config.Action{
			{Sec: 5, LEDGroup: 1, LEDIndex: 3, LEDState: "blink", Message: "release to reset"},
			{Sec: 1, LEDGroup: 1, LEDIndex: 2, LEDState: "blink", Message: "release to restart"},
		},
		Release: []config.Action{
			{Sec: 5, LEDGroup: 1, LEDIndex: 3, LEDState: "off", Message: "resetting", ExecCmd: "reset-to-default"},
			{Sec: 1, LEDGroup: 1, LEDIndex: 2, LEDState: "off", Message: "restarting", ExecCmd: "reboot"},
			{Sec: 0, LEDGroup: 1, LEDIndex: 1, LEDState: "off"},
		},
	}
}

func newTestPolicy(actions config.Actions) (*Policy, *FakeController, *FakeRunner, *test.Hook) {
	led := NewFakeController()
	run := NewFakeRunner()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewPolicy(actions, led, run, logger), led, run, hook
}

func TestPressedRunsFirstAction(t *testing.T) {
	p, led, run, hook := newTestPolicy(testActions())

	p.Pressed(0)

	want := []string{"all off", "set 1/1 on"}
	if got := led.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("LED calls: got %v, want %v", got, want)
	}
	if got := run.Commands(); len(got) != 0 {
		t.Errorf("unexpected commands: %v", got)
	}
	if e := hook.LastEntry(); e == nil || e.Message != "button pressed" {
		t.Errorf("message not logged: %+v", e)
	}
}

func TestHoldMatchesExactSecond(t *testing.T) {
	tests := []struct {
		sec  int
		want []string
	}{
		{0, nil},
		{1, []string{"all off", "set 1/2 blink"}},
		{2, nil},
		{4, nil},
		{5, []string{"all off", "set 1/3 blink"}},
		{6, nil},
	}

	for _, tt := range tests {
		p, led, _, _ := newTestPolicy(testActions())
		p.Hold(tt.sec)
		if got := led.Calls(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Hold(%d): got %v, want %v", tt.sec, got, tt.want)
		}
	}
}

func TestHoldStopsAtLowerThreshold(t *testing.T) {
	actions := config.Actions{Hold: []config.Action{
		{Sec: 3, LEDGroup: 1, LEDIndex: 1, LEDState: "blink"},
		{Sec: 10, LEDGroup: 1, LEDIndex: 2, LEDState: "on"},
	}}

	p, led, _, _ := newTestPolicy(actions)
	for sec := 1; sec <= 12; sec++ {
		p.Hold(sec)
	}

	want := []string{"all off", "set 1/1 blink"}
	if got := led.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestReleasedRunsFirstReachedThreshold(t *testing.T) {
	tests := []struct {
		sec     int
		command string
	}{
		{0, ""},
		{1, "reboot"},
		{4, "reboot"},
		{5, "reset-to-default"},
		{30, "reset-to-default"},
	}

	for _, tt := range tests {
		p, _, run, _ := newTestPolicy(testActions())
		p.Released(tt.sec)

		var want []string
		if tt.command != "" {
			want = []string{tt.command}
		}
		if got := run.Commands(); !reflect.DeepEqual(got, want) {
			t.Errorf("Released(%d): got %v, want %v", tt.sec, got, want)
		}
	}
}

func TestReleasedWithoutMatch(t *testing.T) {
	actions := config.Actions{Release: []config.Action{{Sec: 3, ExecCmd: "x"}}}
	p, led, run, _ := newTestPolicy(actions)

	p.Released(2)

	if len(led.Calls()) != 0 || len(run.Commands()) != 0 {
		t.Errorf("unexpected activity: %v %v", led.Calls(), run.Commands())
	}
}

func TestEmptyActions(t *testing.T) {
	p, led, run, _ := newTestPolicy(config.Actions{})

	p.Pressed(0)
	p.Hold(1)
	p.Released(1)

	if len(led.Calls()) != 0 || len(run.Commands()) != 0 {
		t.Errorf("unexpected activity: %v %v", led.Calls(), run.Commands())
	}
}

func TestUnknownLEDStateStillTurnsLEDsOff(t *testing.T) {
	actions := config.Actions{Press: []config.Action{{LEDGroup: 1, LEDIndex: 1, LEDState: "dim"}}}
	p, led, _, hook := newTestPolicy(actions)

	p.Pressed(0)

	if got := led.Calls(); !reflect.DeepEqual(got, []string{"all off"}) {
		t.Errorf("got %v", got)
	}
	if e := hook.LastEntry(); e == nil || e.Level != logrus.WarnLevel {
		t.Errorf("expected a warning, got %+v", e)
	}
}

func TestFailuresAreLoggedNotFatal(t *testing.T) {
	actions := config.Actions{Release: []config.Action{
		{LEDGroup: 1, LEDIndex: 1, LEDState: "on", ExecCmd: "false"},
	}}
	p, led, run, hook := newTestPolicy(actions)
	led.SetError = errors.New("no led")
	run.RunError = errors.New("exit status 1")

	p.Released(0)

	if len(run.Commands()) != 1 {
		t.Errorf("command should still run after an LED failure")
	}
	var warned, failed bool
	for _, e := range hook.AllEntries() {
		switch e.Level {
		case logrus.WarnLevel:
			warned = true
		case logrus.ErrorLevel:
			failed = true
		}
	}
	if !warned || !failed {
		t.Errorf("expected LED warning and command error, got warn=%v error=%v", warned, failed)
	}
}

func TestNilBackends(t *testing.T) {
	p := NewPolicy(testActions(), nil, nil, nil)
	p.Pressed(0)
	p.Released(10)
}

func TestParseState(t *testing.T) {
	for _, s := range []string{"off", "ON", " blink "} {
		if _, err := ParseState(s); err != nil {
			t.Errorf("ParseState(%q): %v", s, err)
		}
	}
	if _, err := ParseState("flash"); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestExecRunner(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	r := NewExecRunner("")

	out, err := r.Run(context.Background(), "echo hello")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "hello" {
		t.Errorf("output: got %q", out)
	}

	if _, err := r.Run(context.Background(), "exit 3"); err == nil {
		t.Error("expected error for non-zero exit")
	}
}

func TestCommandController(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}

	dir := t.TempDir()
	log := filepath.Join(dir, "calls")
	tool := filepath.Join(dir, "mx-led-ctl")
	script := "#!/bin/sh\necho \"$@\" >> " + log + "\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatalf("write tool: %v", err)
	}

	c := NewCommandController(tool)
	ctx := context.Background()
	if err := c.SetAll(ctx, StateOff); err != nil {
		t.Fatalf("SetAll: %v", err)
	}
	if err := c.Set(ctx, 2, 3, StateBlink); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, err := os.ReadFile(log)
	if err != nil {
		t.Fatalf("read calls: %v", err)
	}
	want := "--all-programmable off\n-p 2 -i 3 blink\n"
	if string(data) != want {
		t.Errorf("calls: got %q, want %q", data, want)
	}

	missing := NewCommandController(filepath.Join(dir, "nope"))
	if err := missing.SetAll(ctx, StateOn); err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("expected error naming the tool, got %v", err)
	}
}
