package bot

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/relaybot/core/config"
	"github.com/m3rciful/relaybot/core/database"
)

// Storage backends.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// RedisConfig locates the Redis server for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// StorageConfig selects where the directory collections live.
type StorageConfig struct {
	Backend string      `yaml:"backend" envconfig:"STORAGE_BACKEND"`
	Dir     string      `yaml:"dir" envconfig:"STORAGE_DIR"`
	Redis   RedisConfig `yaml:"redis"`
}

// RelayConfig tunes relay wording.
type RelayConfig struct {
	DefaultWelcome string `yaml:"default_welcome" envconfig:"DEFAULT_WELCOME"`
}

// Config is the relay bot configuration: the shared core plus storage.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Storage  StorageConfig   `yaml:"storage"`
	Database database.Config `yaml:"database"`
	Relay    RelayConfig     `yaml:"relay"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads path, overlays the environment and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.ReadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core and storage sections and applies defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}

	backend := strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if backend == "" {
		backend = BackendFile
	}
	switch backend {
	case BackendFile:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			c.Storage.Dir = "data"
		}
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return fmt.Errorf("storage.redis.addr is required when storage.backend is 'redis'")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Database.Host) == "" || strings.TrimSpace(c.Database.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when storage.backend is 'postgres'")
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
	default:
		return fmt.Errorf("invalid storage.backend %q; allowed: file, memory, redis, postgres", c.Storage.Backend)
	}
	c.Storage.Backend = backend
	return nil
}
