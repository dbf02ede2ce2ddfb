package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/oshokin/multivibrator/internal/domain/multivibrator"
	"github.com/oshokin/multivibrator/internal/logger"
	"github.com/oshokin/multivibrator/internal/multivibrator"
	"github.com/oshokin/multivibrator/internal/sink"
)

// Output names accepted by Outputs.Default and the SetOutput RPC.
const (
	OutputConnector = "connector"
	OutputMQTT      = "mqtt"
	OutputGPIO      = "gpio"
)

// Config holds the settings shared by the multivibrator binaries.
type Config struct {
	// ServerAddress is the gRPC address the server listens on and clients dial.
	ServerAddress string `yaml:"server_addr"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the zap level name used when no flag overrides it.
	LogLevel string `yaml:"log_level"`
	// EngineLogLevel, when set, pins the level of the scheduler's logger
	// independently of LogLevel, e.g. "debug" to trace phase changes.
	EngineLogLevel string `yaml:"engine_log_level,omitempty"`
	// Multivibrator configures the timing engine.
	Multivibrator multivibrator.Config `yaml:"multivibrator"`
	// Outputs configures the sinks the output can be routed to.
	Outputs Outputs `yaml:"outputs"`
}

// Outputs lists the configured sinks. The in-process connector is always
// available; MQTT and GPIO are mirrored only when configured.
type Outputs struct {
	// Default is the sink bound at start.
	Default string `yaml:"default"`
	// MQTT mirrors the level to a broker topic.
	MQTT *sink.MQTTOptions `yaml:"mqtt,omitempty"`
	// GPIO drives a hardware line.
	GPIO *sink.GPIOOptions `yaml:"gpio,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "multivibrator-settings.yaml"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
	// errInvalidLogLevel is returned when log_level is not a zap level.
	errInvalidLogLevel = errors.New("invalid log level")
	// ErrUnknownOutput is returned when an output name is not configured.
	ErrUnknownOutput = errors.New("unknown output")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.LogLevel)
	}

	if settings.EngineLogLevel != "" {
		if _, ok := logger.ParseLogLevel(settings.EngineLogLevel); !ok {
			return fmt.Errorf("%w: %q", errInvalidLogLevel, settings.EngineLogLevel)
		}
	}

	// A zero mode means the key was omitted.
	if settings.Multivibrator.Mode == 0 {
		settings.Multivibrator.Mode = domain.Monostable
	}

	if !settings.Multivibrator.Mode.Valid() {
		return fmt.Errorf("%w: %w: %d", multivibrator.ErrInvalidConfiguration,
			multivibrator.ErrInvalidMode, int(settings.Multivibrator.Mode))
	}

	if _, err := multivibrator.Resolve(settings.Multivibrator); err != nil {
		return err
	}

	if settings.Outputs.Default == "" {
		settings.Outputs.Default = OutputConnector
	}

	if !settings.Outputs.Has(settings.Outputs.Default) {
		return fmt.Errorf("default output %q: %w", settings.Outputs.Default, ErrUnknownOutput)
	}

	return nil
}

// Has reports whether name refers to a configured sink.
func (o Outputs) Has(name string) bool {
	switch name {
	case OutputConnector:
		return true
	case OutputMQTT:
		return o.MQTT != nil
	case OutputGPIO:
		return o.GPIO != nil
	default:
		return false
	}
}

// Names returns the configured sink names in a stable order.
func (o Outputs) Names() []string {
	names := []string{OutputConnector}

	if o.MQTT != nil {
		names = append(names, OutputMQTT)
	}

	if o.GPIO != nil {
		names = append(names, OutputGPIO)
	}

	return names
}
