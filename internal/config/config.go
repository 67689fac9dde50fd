// Package config loads the process configuration from YAML and applies
// defaults, so every subsystem receives a fully populated config struct.
package config

import (
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"apiforge/internal/apigen"
	"apiforge/internal/errs"
	"apiforge/internal/filestore"
	"apiforge/internal/logger"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errs.Newf(errs.ErrKindValidation, "invalid duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig tunes the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request body size on the data plane.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// Config is the full process configuration.
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Log    logger.Config `yaml:"log"`

	// API holds the generation defaults applied to tenants that do not
	// override them in their generate request.
	API apigen.Config `yaml:"api"`

	// FileStore configures the upload backend. Nil disables uploads
	// globally regardless of per-tenant flags.
	FileStore *filestore.Config `yaml:"filestore"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
			MaxBodyBytes:    10 << 20,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
		},
		API: apigen.DefaultConfig(),
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to read config file", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindValidation, "failed to parse config file", err)
	}
	return cfg, nil
}
