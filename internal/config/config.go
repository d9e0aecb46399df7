// Package config loads server configuration from defaults, an optional
// YAML file, and COOGMUSIC_* environment variables, in that precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all settings for the API server.
type Config struct {
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBName     string `koanf:"db_name"`

	// SessionSecret signs the session cookie.
	SessionSecret string `koanf:"session_secret"`

	// InactivityTimeoutSeconds is the age after which an open login
	// is eligible for the inactivity sweep.
	InactivityTimeoutSeconds int `koanf:"inactivity_timeout_seconds"`
}

// Defaults mirror the development database settings.
var defaults = Config{
	Port:                     3000,
	Env:                      "development",
	DBHost:                   "127.0.0.1",
	DBPort:                   "3306",
	DBUser:                   "coogmusic",
	DBPassword:               "coogmusic",
	DBName:                   "coogmusic",
	InactivityTimeoutSeconds: 3600,
}

const envPrefix = "COOGMUSIC_"

var (
	ErrMissingSessionSecret = errors.New("COOGMUSIC_SESSION_SECRET is required")
	ErrInvalidPort          = errors.New("port must be between 1 and 65535")
)

// Load reads configuration. A non-empty path loads a YAML file before
// environment variables are applied on top.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return ErrMissingSessionSecret
	}
	if c.Port < 1 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.InactivityTimeoutSeconds <= 0 {
		c.InactivityTimeoutSeconds = 3600
	}
	return nil
}
