package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Settings configures the pbtnd daemon.
// Loaded from YAML or TOML; PBTN_* environment variables override the file.
type Settings struct {
	ButtonConfig string          `yaml:"button_config" toml:"button_config"`
	Button       ButtonSettings  `yaml:"button" toml:"button"`
	MQTT         MQTTSettings    `yaml:"mqtt" toml:"mqtt"`
	HTTP         HTTPSettings    `yaml:"http" toml:"http"`
	Logging      LoggingSettings `yaml:"logging" toml:"logging"`
	LED          LEDSettings     `yaml:"led" toml:"led"`
	Shell        string          `yaml:"shell" toml:"shell"`
}

// ButtonSettings selects the button the daemon attaches its actions to.
type ButtonSettings struct {
	Type  string `yaml:"type" toml:"type"`
	Index int    `yaml:"index" toml:"index"`
}

// MQTTSettings contains MQTT broker connection settings.
type MQTTSettings struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size" toml:"buffer_size"`
}

// HTTPSettings contains the status server settings. An empty Addr disables it.
type HTTPSettings struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// LoggingSettings contains logging settings.
type LoggingSettings struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// LEDSettings names the programmable LED control command.
type LEDSettings struct {
	Command string `yaml:"command" toml:"command"`
}

// DefaultSettings returns Settings with the defaults of a stock device.
func DefaultSettings() *Settings {
	return &Settings{
		ButtonConfig: DefaultButtonConfigPath,
		Button: ButtonSettings{
			Type:  "system",
			Index: 1,
		},
		MQTT: MQTTSettings{
			Enabled:     false,
			Broker:      "tcp://127.0.0.1:1883",
			ClientID:    "pbtnd",
			TopicPrefix: "pbtn",
			BufferSize:  100,
		},
		HTTP: HTTPSettings{
			Addr: "",
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
		LED: LEDSettings{
			Command: "/sbin/mx-led-ctl",
		},
		Shell: "/bin/sh",
	}
}

// LoadSettings reads daemon settings.
//
// The loading order is:
//  1. Default values
//  2. File values, decoded as TOML for ".toml" and YAML otherwise; an empty
//     path skips the file
//  3. Environment variables (PBTN_SECTION_KEY)
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading settings file: %w", err)
		}
		if err := decodeSettings(path, data, s); err != nil {
			return nil, fmt.Errorf("parsing settings file: %w", err)
		}
	}

	applyEnvOverrides(s)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return s, nil
}

func decodeSettings(path string, data []byte, s *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, s)
	default:
		return yaml.Unmarshal(data, s)
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(s *Settings) {
	if v := os.Getenv("PBTN_BUTTON_CONFIG"); v != "" {
		s.ButtonConfig = v
	}
	if v := os.Getenv("PBTN_MQTT_BROKER"); v != "" {
		s.MQTT.Broker = v
	}
	if v := os.Getenv("PBTN_MQTT_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.MQTT.Enabled = b
		}
	}
	if v := os.Getenv("PBTN_HTTP_ADDR"); v != "" {
		s.HTTP.Addr = v
	}
	if v := os.Getenv("PBTN_LOGGING_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := os.Getenv("PBTN_LOGGING_FORMAT"); v != "" {
		s.Logging.Format = v
	}
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	var errs []string

	if s.ButtonConfig == "" {
		errs = append(errs, "button_config is required")
	}
	if _, err := ParseButtonType(s.Button.Type); err != nil {
		errs = append(errs, "button.type: "+err.Error())
	}
	if s.Button.Index < 1 {
		errs = append(errs, "button.index must be at least 1")
	}
	if s.MQTT.Enabled {
		if s.MQTT.Broker == "" {
			errs = append(errs, "mqtt.broker is required when mqtt is enabled")
		}
		if s.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}
	if s.MQTT.BufferSize < 0 {
		errs = append(errs, "mqtt.buffer_size must not be negative")
	}
	switch strings.ToLower(s.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be text or json", s.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
