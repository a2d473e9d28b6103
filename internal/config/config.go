// Package config loads the server configuration from an optional YAML
// file plus environment overrides. A missing file is not an error; the
// defaults are enough to run with the embedded questionnaire and the
// SQLite ledger.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends the ledger can run on.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config is the full server configuration.
type Config struct {
	// DataDir holds the SQLite database. Defaults to ~/.briefing.
	DataDir string `yaml:"data_dir"`
	// GraphPath points at a question graph JSON file. Empty means the
	// embedded default questionnaire.
	GraphPath string        `yaml:"graph_path"`
	Storage   StorageConfig `yaml:"storage"`
	Log       LogConfig     `yaml:"log"`
}

// StorageConfig selects and tunes the session ledger backend.
type StorageConfig struct {
	Backend          string `yaml:"backend"`
	RedisURL         string `yaml:"redis_url"`
	RedisTTLSeconds  int    `yaml:"redis_ttl_seconds"`
	PersistTimeoutMS int    `yaml:"persist_timeout_ms"`
}

// LogConfig tunes zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// Default returns the configuration used when no file and no overrides
// are present.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		DataDir: filepath.Join(home, ".briefing"),
		Storage: StorageConfig{
			Backend:          BackendSQLite,
			RedisTTLSeconds:  86400,
			PersistTimeoutMS: 2000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the YAML file at path, if it exists, on top of the
// defaults, then applies environment overrides. An empty path skips the
// file entirely.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Fall through to defaults.
		case err != nil:
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BRIEFING_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("BRIEFING_GRAPH_PATH"); v != "" {
		c.GraphPath = v
	}
	if v := os.Getenv("BRIEFING_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("BRIEFING_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	} else if v := os.Getenv("REDIS_URL"); v != "" && c.Storage.RedisURL == "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("BRIEFING_REDIS_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisTTLSeconds = n
		}
	}
	if v := os.Getenv("BRIEFING_PERSIST_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Storage.PersistTimeoutMS = n
		}
	}
	if v := os.Getenv("BRIEFING_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BRIEFING_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Backend == BackendRedis && c.Storage.RedisURL == "" {
		return fmt.Errorf("config: storage backend %q requires a redis URL", BackendRedis)
	}
	return nil
}

// PersistTimeout returns the bounded timeout for ledger calls.
func (c Config) PersistTimeout() time.Duration {
	return time.Duration(c.Storage.PersistTimeoutMS) * time.Millisecond
}

// RedisTTL returns the per-session expiry for the Redis backend.
func (c Config) RedisTTL() time.Duration {
	return time.Duration(c.Storage.RedisTTLSeconds) * time.Second
}
