package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleLayout = `{
	"CONFIG_VERSION": "1.1.0",
	"NUM_OF_ALL_BUTTONS": 3,
	"BUTTON_TYPES": [
		{"TYPE": "SYSTEM", "NUM_OF_BUTTONS": 1, "PATHS": ["/dev/input/event0"]},
		{"TYPE": "USER", "NUM_OF_BUTTONS": 2, "PATHS": ["gpiochip0:17", "gpiochip0:18"]}
	],
	"DEFAULT_ACTIONS": [{
		"PRESS_ACTION": [{"LED_GROUP": 1, "LED_INDEX": 1, "LED_STATE": "on", "MESSAGE": "pressed", "EXEC_CMD": ""}],
		"HOLD_ACTION": [{"SEC": 3, "LED_GROUP": 1, "LED_INDEX": 2, "LED_STATE": "blink", "MESSAGE": "reboot?", "EXEC_CMD": ""}],
		"RELEASE_ACTION": [{"SEC": 3, "LED_GROUP": 1, "LED_INDEX": 2, "LED_STATE": "off", "MESSAGE": "rebooting", "EXEC_CMD": "reboot"}]
	}]
}`

func TestLoadBytes(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ButtonCount() != 3 {
		t.Errorf("ButtonCount: got %d, want 3", cfg.ButtonCount())
	}
	if cfg.SystemCount() != 1 {
		t.Errorf("SystemCount: got %d, want 1", cfg.SystemCount())
	}

	path, err := cfg.DevicePath(TypeSystem, 1)
	if err != nil {
		t.Fatalf("DevicePath(system, 1): %v", err)
	}
	if path != "/dev/input/event0" {
		t.Errorf("DevicePath(system, 1): got %q", path)
	}

	path, err = cfg.DevicePath(TypeUser, 2)
	if err != nil {
		t.Fatalf("DevicePath(user, 2): %v", err)
	}
	if path != "gpiochip0:18" {
		t.Errorf("DevicePath(user, 2): got %q", path)
	}
}

func TestDevicePathOutOfRange(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		typ   ButtonType
		index int
	}{
		{"system zero", TypeSystem, 0},
		{"system past end", TypeSystem, 2},
		{"user past end", TypeUser, 3},
		{"unknown type", ButtonType(5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cfg.DevicePath(tt.typ, tt.index)
			if !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		version     string
		wantErr     bool
		unsupported bool
	}{
		{"1.1.0", false, false},
		{"1.1.7", false, false},
		{"1.1", false, false},
		{"1.1.x-rc1", false, false},
		{"1.2.0", true, true},
		{"2.1.0", true, true},
		{"1", true, false},
		{"a.b.c", true, false},
		{"", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := CheckVersion(tt.version)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
			if got := errors.Is(err, ErrUnsupportedVersion); got != tt.unsupported {
				t.Errorf("ErrUnsupportedVersion: got %v, want %v", got, tt.unsupported)
			}
		})
	}
}

func TestLoadBytesMissingKeys(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"invalid json", `{`},
		{"no version", `{"NUM_OF_ALL_BUTTONS": 1, "BUTTON_TYPES": [{"PATHS": ["a"]}]}`},
		{"no count", `{"CONFIG_VERSION": "1.1.0", "BUTTON_TYPES": [{"PATHS": ["a"]}]}`},
		{"negative count", `{"CONFIG_VERSION": "1.1.0", "NUM_OF_ALL_BUTTONS": -1, "BUTTON_TYPES": [{"PATHS": ["a"]}]}`},
		{"no types", `{"CONFIG_VERSION": "1.1.0", "NUM_OF_ALL_BUTTONS": 1}`},
		{"bad version", `{"CONFIG_VERSION": "2.0.0", "NUM_OF_ALL_BUTTONS": 1, "BUTTON_TYPES": [{"PATHS": ["a"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.doc))
			if !errors.Is(err, ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

func TestSystemCountDefaultsToPaths(t *testing.T) {
	cfg, err := LoadBytes([]byte(`{
		"CONFIG_VERSION": "1.1.0",
		"NUM_OF_ALL_BUTTONS": 2,
		"BUTTON_TYPES": [{"PATHS": ["a", "b"]}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SystemCount() != 2 {
		t.Errorf("SystemCount: got %d, want 2", cfg.SystemCount())
	}
}

func TestDefaultActions(t *testing.T) {
	cfg, err := LoadBytes([]byte(sampleLayout))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := cfg.DefaultActions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Press) != 1 || len(a.Hold) != 1 || len(a.Release) != 1 {
		t.Fatalf("unexpected actions: %+v", a)
	}
	if a.Hold[0].Sec != 3 || a.Hold[0].LEDState != "blink" {
		t.Errorf("unexpected hold action: %+v", a.Hold[0])
	}
	if a.Release[0].ExecCmd != "reboot" {
		t.Errorf("unexpected release command: %q", a.Release[0].ExecCmd)
	}

	empty, _ := LoadBytes([]byte(`{"CONFIG_VERSION": "1.1.0", "NUM_OF_ALL_BUTTONS": 0, "BUTTON_TYPES": [{}]}`))
	if _, err := empty.DefaultActions(); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig without DEFAULT_ACTIONS, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moxa-push-button.json")
	if err := os.WriteFile(path, []byte(sampleLayout), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ButtonCount() != 3 {
		t.Errorf("ButtonCount: got %d, want 3", cfg.ButtonCount())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, ErrConfig) {
		t.Errorf("expected ErrConfig for missing file, got %v", err)
	}
}

func TestParseButtonType(t *testing.T) {
	if bt, err := ParseButtonType("System"); err != nil || bt != TypeSystem {
		t.Errorf("System: got %v, %v", bt, err)
	}
	if bt, err := ParseButtonType("user"); err != nil || bt != TypeUser {
		t.Errorf("user: got %v, %v", bt, err)
	}
	if _, err := ParseButtonType("reset"); err == nil {
		t.Error("expected error for unknown type")
	}
	if TypeUser.String() != "user" || ButtonType(7).String() != "type(7)" {
		t.Errorf("unexpected String output: %s, %s", TypeUser, ButtonType(7))
	}
}
