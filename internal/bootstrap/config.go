// Package bootstrap loads the process-level settings of the aione binary: where the chat
// configuration is persisted, how events are published and how requests are paced.
//
// The runtime chat settings (provider, key, model) live in config.Store; this file only
// decides how that store and its collaborators are built.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "AIONE_CONFIG"
	EnvStorage    = "AIONE_STORAGE"
	EnvDataDir    = "AIONE_DATA_DIR"
	EnvLogLevel   = "AIONE_LOG_LEVEL"
	EnvNATSURL    = "NATS_URL"
)

type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendNATS   Backend = "nats"
)

type Config struct {
	Storage   StorageConfig   `toml:"storage" yaml:"storage"`
	NATS      NATSConfig      `toml:"nats" yaml:"nats"`
	Events    EventsConfig    `toml:"events" yaml:"events"`
	Transport TransportConfig `toml:"transport" yaml:"transport"`
	Log       LogConfig       `toml:"log" yaml:"log"`
}

type StorageConfig struct {
	Backend Backend `toml:"backend" yaml:"backend"`
	// Dir holds the JSON documents of the file backend and the database of the sqlite one.
	Dir string `toml:"dir" yaml:"dir"`
	// Bucket is the JetStream key-value bucket of the nats backend.
	Bucket string `toml:"bucket" yaml:"bucket"`
	// Watch reloads the configuration when another process changes it.
	Watch bool `toml:"watch" yaml:"watch"`
}

type NATSConfig struct {
	URL string `toml:"url" yaml:"url"`
}

type EventsConfig struct {
	// Broker is "local", "nats" or empty to disable event publishing.
	Broker string `toml:"broker" yaml:"broker"`
	Topic  string `toml:"topic" yaml:"topic"`
}

type TransportConfig struct {
	Timeout           time.Duration `toml:"timeout" yaml:"timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `toml:"burst" yaml:"burst"`
}

type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendFile,
			Dir:     defaultDataDir(),
			Bucket:  "aione",
		},
		Events: EventsConfig{Topic: "session"},
		Log:    LogConfig{Level: "warn"},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "aione")
	}
	return ".aione"
}

// DefaultPath is the file consulted when neither an explicit path nor $AIONE_CONFIG is set.
func DefaultPath() string {
	return filepath.Join(defaultDataDir(), "aione.toml")
}

// Load reads the settings from path, $AIONE_CONFIG or DefaultPath, in that order, then
// applies environment overrides. A missing file yields the defaults. The format follows the
// extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	explicit := path != "" || os.Getenv(EnvConfigPath) != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	err := LoadFile(cfg, path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		slog.Debug("no bootstrap file, using defaults", slog.String("path", path))
	default:
		return nil, err
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes path on top of cfg.
func LoadFile(cfg *Config, path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("bootstrap: decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("bootstrap: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("bootstrap: decode %s: %w", path, err)
		}
	default:
		return fmt.Errorf("bootstrap: unsupported config format %q", ext)
	}
	return nil
}

// ApplyEnv overrides settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvStorage); v != "" {
		c.Storage.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendNATS:
	case BackendFile, BackendSQLite:
		if c.Storage.Dir == "" {
			return fmt.Errorf("bootstrap: storage dir is required for the %s backend", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("bootstrap: unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Events.Broker {
	case "", "local", "nats":
	default:
		return fmt.Errorf("bootstrap: unknown events broker %q", c.Events.Broker)
	}

	if c.Transport.RequestsPerSecond < 0 {
		return fmt.Errorf("bootstrap: requests_per_second must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// NeedsNATS reports whether any component requires a NATS connection.
func (c *Config) NeedsNATS() bool {
	return c.Storage.Backend == BackendNATS || c.Events.Broker == "nats"
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("bootstrap: invalid log level %q: %w", c.Log.Level, err)
	}
	return lvl, nil
}
