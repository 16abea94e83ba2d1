package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/brightloom/icebridge/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrConfigReadFailed   = errors.MustNewCode("config.read_failed")
	ErrConfigParseFailed  = errors.MustNewCode("config.parse_failed")
	ErrConfigWriteFailed  = errors.MustNewCode("config.write_failed")
	ErrConfigInvalidField = errors.MustNewCode("config.invalid_field")
)

// Config is the thin runtime configuration for the icebridge binary:
// where the warehouse lives on disk, where watermarks are persisted, and
// how logging behaves. Transfer-specific configuration (source,
// destination, merge strategy) lives in server/transfer.
type Config struct {
	Version   string          `yaml:"version"`
	Warehouse WarehouseConfig `yaml:"warehouse"`
	Watermark WatermarkConfig `yaml:"watermark"`
	Logging   LogConfig       `yaml:"logging"`
}

// WarehouseConfig describes the local filesystem root under which every
// table directory (<warehouse>/<table>/{metadata,data}) is created.
type WarehouseConfig struct {
	RootPath string `yaml:"root_path"`
}

// WatermarkConfig describes where per-table watermark JSON documents live.
type WatermarkConfig struct {
	Dir string `yaml:"dir"`
}

// LogConfig holds logging configuration, consumed by SetupLogger.
type LogConfig struct {
	Level      string `yaml:"level"`
	Console    bool   `yaml:"console"`
	FilePath   string `yaml:"file_path,omitempty"`
	MaxSize    int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age_days,omitempty"`
	Cleanup    bool   `yaml:"cleanup_on_start,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is found.
func DefaultConfig() *Config {
	return &Config{
		Version: "0.1.0",
		Warehouse: WarehouseConfig{
			RootPath: "./warehouse",
		},
		Watermark: WatermarkConfig{
			Dir: "./warehouse/.watermarks",
		},
		Logging: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// Load searches well-known locations for a config file, falling back to
// DefaultConfig when none is found.
func Load() (*Config, error) {
	if path := findConfigFile(); path != "" {
		return LoadFromFile(path)
	}
	return DefaultConfig(), nil
}

// LoadFromFile loads and validates configuration from a specific YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(ErrConfigReadFailed, "failed to read config file", err).AddContext("path", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(ErrConfigParseFailed, "failed to parse config file", err).AddContext("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration back out as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(ErrConfigWriteFailed, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(ErrConfigWriteFailed, "failed to write config file", err).AddContext("path", path)
	}
	return nil
}

// Validate checks structural invariants of the configuration.
func (c *Config) Validate() error {
	if c.Warehouse.RootPath == "" {
		return errors.New(ErrConfigInvalidField, "warehouse.root_path must not be empty", nil).AddContext("field", "warehouse.root_path")
	}
	if c.Watermark.Dir == "" {
		return errors.New(ErrConfigInvalidField, "watermark.dir must not be empty", nil).AddContext("field", "watermark.dir")
	}
	if _, err := time.LoadLocation("UTC"); err != nil {
		return errors.New(ErrConfigInvalidField, "runtime has no UTC location available", err)
	}
	return nil
}

func findConfigFile() string {
	if _, err := os.Stat("icebridge.yml"); err == nil {
		return "icebridge.yml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".icebridge", "icebridge.yml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if _, err := os.Stat("/etc/icebridge/icebridge.yml"); err == nil {
		return "/etc/icebridge/icebridge.yml"
	}
	return ""
}
