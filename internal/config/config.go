// Package config loads discuss configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the root configuration. Sources, highest priority first:
//  1. explicit path passed to Load;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. environment only.
//
// Environment variables always overlay file values. A .env file in the
// working directory is loaded into the environment first when present.
type Config struct {
	Env    string       `yaml:"env" env:"DISCUSS_ENV" env-default:"local"`
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
	State  StateConfig  `yaml:"state"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"DISCUSS_ADDR"`
	DBPath          string        `yaml:"db_path" env:"DISCUSS_DB" env-default:"discuss.db"`
	Author          string        `yaml:"author" env:"DISCUSS_AUTHOR" env-default:"Admin"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"DISCUSS_REQUEST_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"DISCUSS_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimits      RateLimits    `yaml:"rate_limits"`
}

type RateLimits struct {
	WritesPerMinute int `yaml:"writes_per_minute" env:"DISCUSS_RL_WRITES_PER_MIN" env-default:"30"`
	LikesPerMinute  int `yaml:"likes_per_minute" env:"DISCUSS_RL_LIKES_PER_MIN" env-default:"120"`
}

type ClientConfig struct {
	BaseURL         string        `yaml:"base_url" env:"DISCUSS_URL" env-default:"http://localhost:8000"`
	ReactionTimeout time.Duration `yaml:"reaction_timeout" env:"DISCUSS_REACTION_TIMEOUT" env-default:"5s"`
	HTTPTimeout     time.Duration `yaml:"http_timeout" env:"DISCUSS_HTTP_TIMEOUT" env-default:"30s"`
}

// StateConfig selects where the client keeps its ledger and preferences.
type StateConfig struct {
	Backend     string `yaml:"backend" env:"DISCUSS_STATE_BACKEND" env-default:"file"`
	Path        string `yaml:"path" env:"DISCUSS_STATE_PATH"`
	RedisAddr   string `yaml:"redis_addr" env:"DISCUSS_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPrefix string `yaml:"redis_prefix" env:"DISCUSS_REDIS_PREFIX" env-default:"discuss:"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// MustLoad wraps Load and panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	switch {
	case path != "":
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH"), &cfg); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("local.yaml"); err == nil {
			if err := readFile("local.yaml", &cfg); err != nil {
				return nil, err
			}
		} else if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readFile reads a YAML file and overlays the environment.
func readFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %q stat failed: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("failed to overlay env: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			c.Server.Addr = ":" + port
		} else {
			c.Server.Addr = ":8000"
		}
	}
	if c.State.Path == "" && c.State.Backend != BackendRedis {
		name := "state.json"
		if c.State.Backend == BackendSQLite {
			name = "state.db"
		}
		dir := ".discuss"
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".discuss")
		}
		c.State.Path = filepath.Join(dir, name)
	}
}

func (c *Config) validate() error {
	switch c.Env {
	case "local", "dev", "prod":
	default:
		return fmt.Errorf("env must be one of local, dev, prod")
	}

	if c.Client.BaseURL == "" {
		return fmt.Errorf("client.base_url is required")
	}

	if c.Client.ReactionTimeout <= 0 {
		return fmt.Errorf("client.reaction_timeout must be > 0")
	}

	if c.Client.HTTPTimeout < c.Client.ReactionTimeout {
		return fmt.Errorf("client.http_timeout must be >= client.reaction_timeout")
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be > 0")
	}

	if c.Server.RateLimits.WritesPerMinute < 0 || c.Server.RateLimits.LikesPerMinute < 0 {
		return fmt.Errorf("server.rate_limits must be >= 0")
	}

	switch c.State.Backend {
	case BackendFile, BackendSQLite:
		if c.State.Path == "" {
			return fmt.Errorf("state.path is required for the %s backend", c.State.Backend)
		}
	case BackendRedis:
		if c.State.RedisAddr == "" {
			return fmt.Errorf("state.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("state.backend must be one of file, sqlite, redis")
	}

	return nil
}
