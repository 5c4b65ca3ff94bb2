package policy

import (
	"fmt"
	"strings"
)

// Scope controls how broadly cache keys are partitioned.
type Scope string

const (
	// ScopeNone shares cache entries across every API and application.
	ScopeNone Scope = "NONE"

	// ScopeAPI partitions cache entries per API.
	ScopeAPI Scope = "API"

	// ScopeApplication partitions cache entries per API and application.
	ScopeApplication Scope = "APPLICATION"
)

// DefaultTimeToLiveSeconds is the TTL ceiling used when none is configured.
const DefaultTimeToLiveSeconds int64 = 600

// Config holds the cache policy configuration.
type Config struct {
	// CacheName is the name of the cache resource to use.
	CacheName string `yaml:"cacheName" json:"cacheName"`

	// Key is an optional template evaluated per request and appended to the key.
	Key string `yaml:"key" json:"key"`

	// Scope is the key partitioning breadth.
	Scope Scope `yaml:"scope" json:"scope"`

	// TimeToLiveSeconds is the configured TTL and the TTL ceiling.
	TimeToLiveSeconds int64 `yaml:"timeToLiveSeconds" json:"timeToLiveSeconds"`

	// UseResponseCacheHeaders honours Cache-Control and Expires from the backend.
	UseResponseCacheHeaders bool `yaml:"useResponseCacheHeaders" json:"useResponseCacheHeaders"`
}

// DefaultConfig returns the default policy configuration.
// CacheName has no default and must be set.
func DefaultConfig() Config {
	return Config{
		Scope:             ScopeApplication,
		TimeToLiveSeconds: DefaultTimeToLiveSeconds,
	}
}

// Validate checks the configuration and normalises the scope.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CacheName) == "" {
		return fmt.Errorf("cacheName is required")
	}
	if c.TimeToLiveSeconds < 0 {
		return fmt.Errorf("timeToLiveSeconds must be >= 0, got %d", c.TimeToLiveSeconds)
	}

	switch scope := Scope(strings.ToUpper(strings.TrimSpace(string(c.Scope)))); scope {
	case "":
		c.Scope = ScopeApplication
	case ScopeNone, ScopeAPI, ScopeApplication:
		c.Scope = scope
	default:
		return fmt.Errorf("invalid scope %q (must be NONE, API or APPLICATION)", c.Scope)
	}
	return nil
}
