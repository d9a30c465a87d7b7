// Package config loads the push-button layout file and the daemon settings.
//
// The layout file is the platform's JSON document listing how many buttons
// exist and which device backs each of them. It is read once at startup;
// there is no reload.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultButtonConfigPath is where the platform installs the layout file.
const DefaultButtonConfigPath = "/etc/moxa-configs/moxa-push-button.json"

// Supported configuration version. The patch component is ignored.
const (
	SupportedMajor = 1
	SupportedMinor = 1
)

var (
	// ErrConfig is returned for missing or malformed configuration data.
	ErrConfig = errors.New("pbtn: configuration error")

	// ErrUnsupportedVersion is returned when CONFIG_VERSION does not match
	// the supported major.minor version. It wraps ErrConfig.
	ErrUnsupportedVersion = fmt.Errorf("%w: config version not supported, need to be %d.%d.*",
		ErrConfig, SupportedMajor, SupportedMinor)
)

// ButtonType is the button group a 1-based button index refers to.
// Its value is the position of the group in BUTTON_TYPES.
type ButtonType int

const (
	TypeSystem ButtonType = 0
	TypeUser   ButtonType = 1
)

func (t ButtonType) String() string {
	switch t {
	case TypeSystem:
		return "system"
	case TypeUser:
		return "user"
	default:
		return "type(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseButtonType parses "system" or "user".
func ParseButtonType(s string) (ButtonType, error) {
	switch strings.ToLower(s) {
	case "system":
		return TypeSystem, nil
	case "user":
		return TypeUser, nil
	default:
		return 0, fmt.Errorf("unknown button type %q", s)
	}
}

// ButtonGroup lists the devices of one button type.
type ButtonGroup struct {
	Type  string   `json:"TYPE"`
	Count *int     `json:"NUM_OF_BUTTONS"`
	Paths []string `json:"PATHS"`
}

// Action is one entry of a PRESS/HOLD/RELEASE action list.
type Action struct {
	Sec      int    `json:"SEC"`
	LEDGroup int    `json:"LED_GROUP"`
	LEDIndex int    `json:"LED_INDEX"`
	LEDState string `json:"LED_STATE"`
	Message  string `json:"MESSAGE"`
	ExecCmd  string `json:"EXEC_CMD"`
}

// Actions is the daemon's default behaviour for the system button.
type Actions struct {
	Press   []Action `json:"PRESS_ACTION"`
	Hold    []Action `json:"HOLD_ACTION"`
	Release []Action `json:"RELEASE_ACTION"`
}

// ButtonConfig is a validated layout file.
type ButtonConfig struct {
	Version      *string       `json:"CONFIG_VERSION"`
	NumOfButtons *int          `json:"NUM_OF_ALL_BUTTONS"`
	Groups       []ButtonGroup `json:"BUTTON_TYPES"`
	Defaults     []Actions     `json:"DEFAULT_ACTIONS"`
}

// Load reads and validates the layout file at path.
func Load(path string) (*ButtonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrConfig, path, err)
	}
	cfg, err := LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadBytes decodes and validates a layout document.
func LoadBytes(data []byte) (*ButtonConfig, error) {
	var cfg ButtonConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required keys and the configuration version.
func (c *ButtonConfig) Validate() error {
	if c.Version == nil {
		return fmt.Errorf("%w: missing key CONFIG_VERSION", ErrConfig)
	}
	if err := CheckVersion(*c.Version); err != nil {
		return err
	}
	if c.NumOfButtons == nil {
		return fmt.Errorf("%w: missing key NUM_OF_ALL_BUTTONS", ErrConfig)
	}
	if *c.NumOfButtons < 0 {
		return fmt.Errorf("%w: NUM_OF_ALL_BUTTONS is negative", ErrConfig)
	}
	if len(c.Groups) == 0 {
		return fmt.Errorf("%w: missing key BUTTON_TYPES", ErrConfig)
	}
	return nil
}

// CheckVersion accepts versions whose major.minor equals the supported one.
func CheckVersion(v string) error {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return fmt.Errorf("%w: malformed config version %q", ErrConfig, v)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("%w: malformed config version %q", ErrConfig, v)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("%w: malformed config version %q", ErrConfig, v)
	}
	if major != SupportedMajor || minor != SupportedMinor {
		return fmt.Errorf("%w: got %s", ErrUnsupportedVersion, v)
	}
	return nil
}

// ButtonCount returns NUM_OF_ALL_BUTTONS.
func (c *ButtonConfig) ButtonCount() int {
	if c.NumOfButtons == nil {
		return 0
	}
	return *c.NumOfButtons
}

// SystemCount returns the number of system buttons, which precede the user
// buttons in global id order.
func (c *ButtonConfig) SystemCount() int {
	g, err := c.group(TypeSystem)
	if err != nil {
		return 0
	}
	return g.count()
}

// DevicePath returns the device of the index-th (1-based) button of type t.
func (c *ButtonConfig) DevicePath(t ButtonType, index int) (string, error) {
	g, err := c.group(t)
	if err != nil {
		return "", err
	}
	if index < 1 || index > len(g.Paths) {
		return "", fmt.Errorf("%w: no PATHS entry %d for %s buttons", ErrConfig, index, t)
	}
	return g.Paths[index-1], nil
}

// DefaultActions returns the first DEFAULT_ACTIONS entry.
func (c *ButtonConfig) DefaultActions() (Actions, error) {
	if len(c.Defaults) == 0 {
		return Actions{}, fmt.Errorf("%w: missing key DEFAULT_ACTIONS", ErrConfig)
	}
	return c.Defaults[0], nil
}

func (c *ButtonConfig) group(t ButtonType) (ButtonGroup, error) {
	if int(t) < 0 || int(t) >= len(c.Groups) {
		return ButtonGroup{}, fmt.Errorf("%w: no BUTTON_TYPES entry for %s buttons", ErrConfig, t)
	}
	return c.Groups[t], nil
}

// count is NUM_OF_BUTTONS, or the number of paths when the key is absent.
func (g ButtonGroup) count() int {
	if g.Count != nil {
		return *g.Count
	}
	return len(g.Paths)
}
