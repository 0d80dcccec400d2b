// Package config loads tripguide settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// EnvPrefix prefixes every environment override, e.g. TRIPGUIDE_BACKEND.
const EnvPrefix = "TRIPGUIDE"

type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	Backend  string `mapstructure:"backend"`
	LogLevel string `mapstructure:"log_level"`
	// TickInterval is how often the session view refreshes progress.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// Dir returns the directory holding the config file and, by default, the data.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "tripguide"), nil
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func setDefaults(v *viper.Viper) {
	if dir, err := Dir(); err == nil {
		v.SetDefault("data_dir", dir)
	} else {
		v.SetDefault("data_dir", ".tripguide")
	}
	v.SetDefault("backend", BackendSQLite)
	v.SetDefault("log_level", "info")
	v.SetDefault("tick_interval", time.Second)
}

// Load reads the config file at path, or the default path when empty. A
// missing file is not an error; defaults and environment overrides apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("config: unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBadger)
	}
	if c.DataDir == "" {
		return errors.New("config: data_dir is empty")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %s", c.TickInterval)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return l, nil
}

func (c *Config) DBPath() string    { return filepath.Join(c.DataDir, "tripguide.db") }
func (c *Config) BadgerDir() string { return filepath.Join(c.DataDir, "badger") }
func (c *Config) LogPath() string   { return filepath.Join(c.DataDir, "tripguide.log") }
