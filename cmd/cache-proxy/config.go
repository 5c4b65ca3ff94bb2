package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/gateway-cache/pkg/policy"
)

// Resource types understood by buildRegistry.
const (
	resourceRedis   = "redis"
	resourceSQLite  = "sqlite"
	resourceLevelDB = "leveldb"
)

// Config is the cache-proxy configuration file.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Logging   LoggingConfig    `yaml:"logging"`
	Resources []ResourceConfig `yaml:"resources"`
	Policy    policy.Config    `yaml:"policy"`

	// PurgeInterval controls how often expired artifacts are removed from
	// sqlite and leveldb resources. Zero disables purging.
	PurgeInterval string `yaml:"purgeInterval"`

	purgeEvery time.Duration
}

// ServerConfig describes the listening side and the upstream.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Upstream string `yaml:"upstream"`

	// APIID is attached to every request as the API identifier.
	APIID string `yaml:"apiId"`

	// ApplicationHeader names the request header carrying the application id.
	ApplicationHeader string `yaml:"applicationHeader"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ResourceConfig declares a named cache resource.
type ResourceConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`

	// Redis
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`

	// SQLite file or LevelDB directory
	Path string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			Upstream:          "http://localhost:8081",
			APIID:             "default",
			ApplicationHeader: "X-Application-Id",
		},
		Logging: LoggingConfig{Level: "info"},
		Resources: []ResourceConfig{
			{Name: "default", Type: resourceRedis, Addr: "localhost:6379", Prefix: "cache:"},
		},
		Policy: policy.Config{
			CacheName:         "default",
			Scope:             policy.ScopeApplication,
			TimeToLiveSeconds: policy.DefaultTimeToLiveSeconds,
		},
		PurgeInterval: "5m",
	}
}

// LoadConfig reads the YAML file at path on top of DefaultConfig, applies
// environment overrides and validates the result. An empty path skips the file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values with PORT, UPSTREAM_URL, REDIS_URL and LOG_LEVEL.
func applyEnv(cfg *Config) {
	if port, err := strconv.Atoi(getEnv("PORT", "")); err == nil {
		cfg.Server.Port = port
	}
	cfg.Server.Upstream = getEnv("UPSTREAM_URL", cfg.Server.Upstream)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)

	if redisURL := getEnv("REDIS_URL", ""); redisURL != "" {
		for i := range cfg.Resources {
			if cfg.Resources[i].Type == resourceRedis {
				cfg.Resources[i].Addr = redisURL
			}
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	u, err := url.Parse(c.Server.Upstream)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.upstream must be an absolute URL, got %q", c.Server.Upstream)
	}

	seen := make(map[string]bool, len(c.Resources))
	for i, r := range c.Resources {
		if r.Name == "" {
			return fmt.Errorf("resources[%d].name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("resources[%d]: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true

		switch strings.ToLower(r.Type) {
		case resourceRedis:
			if r.Addr == "" {
				return fmt.Errorf("resources[%d].addr is required for redis", i)
			}
		case resourceSQLite:
		case resourceLevelDB:
			if r.Path == "" {
				return fmt.Errorf("resources[%d].path is required for leveldb", i)
			}
		default:
			return fmt.Errorf("resources[%d].type %q is not supported", i, r.Type)
		}
	}

	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	c.purgeEvery = 0
	if c.PurgeInterval != "" {
		d, err := time.ParseDuration(c.PurgeInterval)
		if err != nil {
			return fmt.Errorf("purgeInterval: %w", err)
		}
		c.purgeEvery = d
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
