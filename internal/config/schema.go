package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version  int            `yaml:"version"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Topology TopologyConfig `yaml:"topology"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SecretsConfig holds the key used to seal device passwords.
// Key is either a base64 encoded 32 byte key or a passphrase.
type SecretsConfig struct {
	Key string `yaml:"key,omitempty"`
}

// TopologyConfig groups cache and discovery settings
type TopologyConfig struct {
	Cache     CacheConfig     `yaml:"cache"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// CacheConfig controls the topology snapshot cache. TTL is a pointer so an
// explicit 0 (rebuild on every read) survives defaulting.
type CacheConfig struct {
	Enabled         *bool     `yaml:"enabled,omitempty"`
	TTL             *Duration `yaml:"ttl,omitempty"`
	RefreshInterval Duration  `yaml:"refresh_interval,omitempty"`
}

// TTLDuration returns the configured TTL, or the default when unset
func (c CacheConfig) TTLDuration() time.Duration {
	if c.TTL == nil {
		return defaultCacheTTL
	}
	return c.TTL.Duration()
}

// IsEnabled reports whether caching is on; unset means enabled
func (c CacheConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// DiscoveryMode selects where neighbor tables come from
type DiscoveryMode string

const (
	// DiscoveryModeCollector delegates to the external collect service
	DiscoveryModeCollector DiscoveryMode = "collector"
	// DiscoveryModeDirect talks SSH/SNMP to devices from this process
	DiscoveryModeDirect DiscoveryMode = "direct"
)

// DiscoveryConfig controls per-device neighbor discovery
type DiscoveryConfig struct {
	Mode         DiscoveryMode `yaml:"mode,omitempty"`
	CollectorURL string        `yaml:"collector_url,omitempty"`
	Timeout      Duration      `yaml:"timeout,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty"`
}

// LoggingConfig mirrors logger.Config in YAML form
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Debug  bool   `yaml:"debug,omitempty"`
	Output string `yaml:"output,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
