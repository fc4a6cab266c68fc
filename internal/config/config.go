// Package config provides configuration management for netinspect.
//
// Config file locations (priority order):
//  1. $NETINSPECT_CONFIG
//  2. ./netinspect.yaml
//  3. ~/.config/netinspect/config.yaml
//  4. /etc/netinspect/config.yaml
//
// Missing values fall back to DefaultConfig. The secret key may also come from
// $NETINSPECT_SECRET_KEY or the file named by $NETINSPECT_SECRET_KEY_FILE,
// both of which win over the config file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr            = ":8080"
	defaultDatabasePath    = "./netinspect.db"
	defaultCacheTTL        = 300 * time.Second
	defaultRefreshInterval = 300 * time.Second
	defaultCollectorURL    = "http://collect-service:8001"
	defaultTimeout         = 10 * time.Second
	defaultConcurrency     = 8
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		if err := cfg.applyEnv(); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, path, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDatabasePath
	}

	cache := &c.Topology.Cache
	// ttl: 0 is a valid setting, only an absent ttl gets the default
	if cache.TTL == nil {
		ttl := Duration(defaultCacheTTL)
		cache.TTL = &ttl
	}
	if cache.RefreshInterval == 0 {
		cache.RefreshInterval = Duration(defaultRefreshInterval)
	}

	discovery := &c.Topology.Discovery
	if discovery.Mode == "" {
		discovery.Mode = DiscoveryModeCollector
	}
	if discovery.CollectorURL == "" {
		discovery.CollectorURL = defaultCollectorURL
	}
	if discovery.Timeout == 0 {
		discovery.Timeout = Duration(defaultTimeout)
	}
	if discovery.Concurrency == 0 {
		discovery.Concurrency = defaultConcurrency
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects settings the topology pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Topology.Discovery.Mode {
	case DiscoveryModeCollector, DiscoveryModeDirect:
	default:
		return fmt.Errorf("topology.discovery.mode: unknown mode %q", c.Topology.Discovery.Mode)
	}
	if c.Topology.Cache.TTLDuration() < 0 {
		return fmt.Errorf("topology.cache.ttl must not be negative")
	}
	if c.Topology.Cache.RefreshInterval.Duration() < 0 {
		return fmt.Errorf("topology.cache.refresh_interval must not be negative")
	}
	if c.Topology.Discovery.Timeout.Duration() < 0 {
		return fmt.Errorf("topology.discovery.timeout must not be negative")
	}
	if c.Topology.Discovery.Concurrency < 0 {
		return fmt.Errorf("topology.discovery.concurrency must not be negative")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	cache := "disabled"
	if c.Topology.Cache.IsEnabled() {
		cache = fmt.Sprintf("ttl=%s refresh=%s",
			c.Topology.Cache.TTLDuration(), c.Topology.Cache.RefreshInterval.Duration())
	}

	return fmt.Sprintf("Addr: %s, DB: %s, Discovery: %s (timeout=%s, concurrency=%d), Cache: %s",
		c.Server.Addr, c.Database.Path, c.Topology.Discovery.Mode,
		c.Topology.Discovery.Timeout.Duration(), c.Topology.Discovery.Concurrency, cache)
}
