package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written in the
// human-friendly "5m" / "30s" form.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	SDK     SDKConfig     `yaml:"sdk"`
	Events  EventsConfig  `yaml:"events"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StorageConfig holds storage configuration
type StorageConfig struct {
	Type       string `yaml:"type"`       // "memory" or "sqlite"
	DSN        string `yaml:"dsn"`        // SQLite database path
	UploadsDir string `yaml:"uploadsDir"` // Uploaded spec artifacts
	SDKsDir    string `yaml:"sdksDir"`    // Generated SDK output
}

// SDKConfig holds SDK generator configuration
type SDKConfig struct {
	GeneratorBin string   `yaml:"generatorBin"` // External generator executable
	Timeout      Duration `yaml:"timeout"`      // Kill a hung generator after this
}

// EventsConfig holds activity stream configuration
type EventsConfig struct {
	MaxEvents int `yaml:"maxEvents"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 3000,
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Type:       "sqlite",
			DSN:        "./data/spechub.db",
			UploadsDir: "./data/uploads",
			SDKsDir:    "./data/sdks",
		},
		SDK: SDKConfig{
			GeneratorBin: "openapi-generator-cli",
			Timeout:      Duration(5 * time.Minute),
		},
		Events: EventsConfig{
			MaxEvents: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
