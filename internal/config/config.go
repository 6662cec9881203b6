// Package config loads the telemetry-capture daemon configuration from
// YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	telemetrycapture "github.com/e7canasta/telemetry-capture"
)

// Config represents the complete daemon configuration
type Config struct {
	InstanceID       string         `yaml:"instance_id"`
	ShutdownTimeoutS int            `yaml:"shutdown_timeout_s"` // Graceful shutdown timeout in seconds (default: 5)
	Capture          CaptureConfig  `yaml:"capture"`
	Logging          LoggingConfig  `yaml:"logging"`
	Sampler          SamplerConfig  `yaml:"sampler"`
	MQTT             MQTTConfig     `yaml:"mqtt"`
	Recorder         RecorderConfig `yaml:"recorder"`
}

// CaptureConfig mirrors telemetrycapture.Config
type CaptureConfig struct {
	UpdateRate           float64       `yaml:"update_rate"`            // polls per second, 0 < rate <= 100
	ChannelCapacity      int           `yaml:"channel_capacity"`       // default 4
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`        // e.g. "10s"
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"` // 0 = forever
	MappingName          string        `yaml:"mapping_name,omitempty"`
	EventName            string        `yaml:"event_name,omitempty"`
	DumpFile             string        `yaml:"dump_file,omitempty"` // replay instead of live region
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// SamplerConfig selects the variables rendered from each frame
type SamplerConfig struct {
	Variables []string `yaml:"variables"` // empty = every variable in the catalog
	Every     int      `yaml:"every"`     // render every Nth frame (default: 1)
}

// MQTTConfig contains MQTT broker settings
type MQTTConfig struct {
	Enabled     bool            `yaml:"enabled"`
	Broker      string          `yaml:"broker"` // host:port or tcp://host:port
	ClientID    string          `yaml:"client_id"`
	TopicPrefix string          `yaml:"topic_prefix"`
	QoS         map[string]byte `yaml:"qos"`
}

// RecorderConfig contains SQLite recorder settings
type RecorderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		InstanceID:       "telemetry-capture",
		ShutdownTimeoutS: 5,
		Capture: CaptureConfig{
			UpdateRate:      60,
			ChannelCapacity: telemetrycapture.DefaultChannelCapacity,
			ReconnectDelay:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Sampler: SamplerConfig{
			Every: 1,
		},
		MQTT: MQTTConfig{
			Broker: "localhost:1883",
		},
		Recorder: RecorderConfig{
			Path: "telemetry.db",
		},
	}
}

// Load builds the configuration.
// Order: defaults -> path (if not empty) -> environment variables -> Validate
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults. It does not validate.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and fills derived defaults.
func (c *Config) Validate() error {
	if c.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(c.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}
	if c.ShutdownTimeoutS <= 0 {
		c.ShutdownTimeoutS = 5
	}

	if _, err := telemetrycapture.UpdateInterval(c.Capture.UpdateRate); err != nil {
		return fmt.Errorf("capture.update_rate: %w", err)
	}
	if c.Capture.ChannelCapacity < 0 {
		return fmt.Errorf("capture.channel_capacity must be >= 0, got %d", c.Capture.ChannelCapacity)
	}
	if c.Capture.ReconnectDelay < 0 {
		return fmt.Errorf("capture.reconnect_delay must be >= 0, got %v", c.Capture.ReconnectDelay)
	}
	if c.Capture.MaxReconnectAttempts < 0 {
		return fmt.Errorf("capture.max_reconnect_attempts must be >= 0, got %d", c.Capture.MaxReconnectAttempts)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: trace, debug, info, warn, error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format)
	}

	if c.Sampler.Every <= 0 {
		c.Sampler.Every = 1
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.ClientID == "" {
			c.MQTT.ClientID = c.InstanceID
		}
		if c.MQTT.TopicPrefix == "" {
			c.MQTT.TopicPrefix = fmt.Sprintf("telemetry/%s", c.InstanceID)
		}
		if c.MQTT.QoS == nil {
			c.MQTT.QoS = map[string]byte{
				"frame":   0,
				"session": 1,
				"catalog": 1,
				"status":  1,
			}
		}
		for topic, qos := range c.MQTT.QoS {
			if qos > 2 {
				return fmt.Errorf("mqtt.qos[%s] must be 0, 1 or 2, got %d", topic, qos)
			}
		}
	}

	if c.Recorder.Enabled && c.Recorder.Path == "" {
		return fmt.Errorf("recorder.path is required when the recorder is enabled")
	}

	return nil
}

// CaptureOptions converts the capture section for telemetrycapture.NewCapture.
func (c *Config) CaptureOptions() telemetrycapture.Config {
	return telemetrycapture.Config{
		UpdateRate:           c.Capture.UpdateRate,
		ChannelCapacity:      c.Capture.ChannelCapacity,
		ReconnectDelay:       c.Capture.ReconnectDelay,
		MaxReconnectAttempts: c.Capture.MaxReconnectAttempts,
		MappingName:          c.Capture.MappingName,
		EventName:            c.Capture.EventName,
		DumpFile:             c.Capture.DumpFile,
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEMETRY_UPDATE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Capture.UpdateRate = f
		}
	}

	if v := os.Getenv("TELEMETRY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("TELEMETRY_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
		cfg.MQTT.Enabled = true
	}

	if v := os.Getenv("TELEMETRY_RECORDER_PATH"); v != "" {
		cfg.Recorder.Path = v
		cfg.Recorder.Enabled = true
	}

	if v := os.Getenv("TELEMETRY_DUMP_FILE"); v != "" {
		cfg.Capture.DumpFile = v
	}
}
