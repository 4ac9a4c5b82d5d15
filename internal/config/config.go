// Package config loads dreams settings from defaults, an optional JSONC
// file, .env and DREAMS_* environment variables, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"github.com/tailscale/hujson"
)

// EnvPrefix namespaces every environment variable, e.g. DREAMS_STORE_DRIVER.
const EnvPrefix = "DREAMS"

const configFileName = "config.jsonc"

// Store drivers.
const (
	DriverFirestore = "firestore"
	DriverRedis     = "redis"
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFile      = "file"
	DriverMemory    = "memory"
)

// Drivers lists every accepted store driver.
var Drivers = []string{DriverFirestore, DriverRedis, DriverSQLite, DriverPostgres, DriverFile, DriverMemory}

// Config is the full settings tree. Environment names are derived from the
// field path (split_words turns ProjectID into PROJECT_ID), so every leaf
// is only ever read under the DREAMS_ prefix.
type Config struct {
	Store struct {
		Driver         string `json:"driver"`
		TimeoutSeconds int    `json:"timeoutSeconds" split_words:"true"`
	} `json:"store"`

	Firestore struct {
		ProjectID    string `json:"projectId" split_words:"true"`
		APIKey       string `json:"apiKey" split_words:"true"`
		AppID        string `json:"appId" split_words:"true"`
		Collection   string `json:"collection"`
		EmulatorHost string `json:"emulatorHost" split_words:"true"`
	} `json:"firestore"`

	Redis struct {
		Addr     string `json:"addr"`
		Password string `json:"password"`
		DB       int    `json:"db"`
		Key      string `json:"key"`
	} `json:"redis"`

	SQL struct {
		// DSN is a file path for sqlite and a connection URL for postgres.
		DSN string `json:"dsn"`
	} `json:"sql"`

	File struct {
		Path string `json:"path"`
	} `json:"file"`

	Log struct {
		Level string `json:"level"`
		File  string `json:"file"`
	} `json:"log"`

	Server struct {
		Addr string `json:"addr"`
		CORS struct {
			Enable         bool     `json:"enable"`
			AllowedOrigins []string `json:"allowedOrigins" split_words:"true"`
		} `json:"cors"`
	} `json:"server"`

	UI struct {
		Theme string `json:"theme"`
	} `json:"ui"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	c := &Config{}
	c.Store.Driver = DriverFirestore
	c.Store.TimeoutSeconds = 10
	c.Firestore.Collection = "items"
	c.Redis.Addr = "localhost:6379"
	c.Redis.Key = "items"
	c.Log.Level = "info"
	c.Server.Addr = ":8080"
	c.UI.Theme = "gold"
	if dir, err := Dir(); err == nil {
		c.SQL.DSN = filepath.Join(dir, "dreams.db")
		c.Log.File = filepath.Join(dir, "dreams.log")
	}
	return c
}

// Timeout is the per-call budget for remote store operations.
func (c *Config) Timeout() time.Duration {
	if c.Store.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Store.TimeoutSeconds) * time.Second
}

// Load builds the configuration. path names a JSONC file; when empty,
// ~/.dreams/config.jsonc is read if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := readFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := godotenv.Load(".env"); err == nil {
		log.Debug().Msg("loaded variables from .env file into environment")
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if cfg.Firestore.APIKey == "" {
		ti, err := GetAPIKey()
		if err != nil {
			log.Warn().Err(err).Msg("could not read stored credentials")
		} else if ti != nil {
			cfg.Firestore.APIKey = ti.Key
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that have a closed set of values.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	for _, d := range Drivers {
		if c.Store.Driver == d {
			return nil
		}
	}
	return fmt.Errorf("unknown store driver %q (want one of %s)", c.Store.Driver, strings.Join(Drivers, ", "))
}

// Dir is the per-user state directory (~/.dreams).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".dreams"), nil
}

// DefaultPath is ~/.dreams/config.jsonc.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	// Standardize JSONC (comments, trailing commas) to JSON.
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}
	if err := json.Unmarshal(standardized, cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}
