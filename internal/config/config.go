package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the YAML config file.
const ConfigPath = "config.yaml"

// Store backends for local state.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIURL        string `yaml:"apiURL"`
	LogLevel      string `yaml:"logLevel"`
	Store         string `yaml:"store"`
	StatePath     string `yaml:"statePath"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisPrefix   string `yaml:"redisPrefix"`
}

// Load reads config from path (defaults to config.yaml). A .env file in the
// working directory, when present, seeds the environment first. A missing
// YAML file is not an error; validation decides whether enough was set.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("read .env: %w", err)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	// Override with environment variables
	if v := os.Getenv("LEARNHUB_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("LEARNHUB_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LEARNHUB_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("LEARNHUB_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("LEARNHUB_REDIS_PREFIX"); v != "" {
		cfg.RedisPrefix = v
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.Store == "" {
		cfg.Store = StoreFile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	if cfg.Store == StoreFile && cfg.StatePath == "" {
		cfg.StatePath = DefaultStatePath()
	}
	if cfg.Store == StoreRedis && cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "learnhub:"
	}
}

// DefaultStatePath returns the per-user state file location.
func DefaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = "."
	}
	return filepath.Join(dir, "learnhub", "state.json")
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return errors.New("config: apiURL is required (set in config.yaml or LEARNHUB_API_URL)")
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("config: apiURL must be an absolute http(s) URL")
	}
	switch cfg.Store {
	case StoreFile:
		if strings.TrimSpace(cfg.StatePath) == "" {
			return errors.New("config: statePath is required for the file store (set in config.yaml or LEARNHUB_STATE_PATH)")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis store (set in config.yaml or REDIS_ADDR)")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: store must be one of file, redis, memory (got %q)", cfg.Store)
	}
	return nil
}
