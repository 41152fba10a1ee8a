package config

import (
	"sort"
	"time"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete pastats.yaml configuration file.
type Config struct {
	Version       int                 `yaml:"version" mapstructure:"version"`
	Firewalls     map[string]Firewall `yaml:"firewalls" mapstructure:"firewalls"`
	Default       string              `yaml:"default" mapstructure:"default"`
	Query         QueryConfig         `yaml:"query" mapstructure:"query"`
	HostnameCache HostnameCacheConfig `yaml:"hostname_cache" mapstructure:"hostname_cache"`
	Stats         StatsConfig         `yaml:"stats" mapstructure:"stats"`
	Output        OutputConfig        `yaml:"output" mapstructure:"output"`
}

// Firewall defines one monitored appliance and its connection settings.
// Profiles are immutable after load; a reload replaces the whole Config.
type Firewall struct {
	// Host is the management address (IP or DNS name).
	Host string `yaml:"host" mapstructure:"host"`

	// Port for the management API. Defaults to 443.
	Port int `yaml:"port" mapstructure:"port"`

	// APIKey authenticates every request. Never logged.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`

	// VerifyTLS controls certificate verification. Most firewalls ship
	// self-signed management certificates, so this defaults to false.
	VerifyTLS bool `yaml:"verify_tls" mapstructure:"verify_tls"`

	// Timeout bounds each individual API request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Enabled excludes the firewall from dispatch when false.
	// Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty" mapstructure:"enabled"`

	// Description shown in summaries.
	Description string `yaml:"description" mapstructure:"description"`

	// Location tag for summaries and line-protocol output.
	Location string `yaml:"location" mapstructure:"location"`

	// RoutingMode selects legacy vs advanced routing commands:
	// "auto", "legacy", or "advanced".
	RoutingMode string `yaml:"routing_mode" mapstructure:"routing_mode"`
}

// IsEnabled reports whether the firewall participates in dispatch.
func (f Firewall) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// QueryConfig controls retry and concurrency behavior for API calls.
type QueryConfig struct {
	// MaxAttempts is the total number of tries per call, including the first.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`

	// RetryDelay is the base backoff delay; attempt k waits
	// delay * 2^(k-1) plus jitter.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay"`

	// MaxConcurrency bounds simultaneous per-firewall workers.
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// HostnameCacheConfig controls the persisted hostname cache.
type HostnameCacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	File    string        `yaml:"file" mapstructure:"file"`
}

// StatsConfig controls which stat modules and collections run.
type StatsConfig struct {
	// Modules maps module name (system, interfaces, routing, vpn,
	// globalprotect, counters) to its toggle set.
	Modules map[string]ModuleConfig `yaml:"modules" mapstructure:"modules"`

	// FirewallOverrides maps firewall name to per-module overrides that
	// take precedence over the global module config.
	FirewallOverrides map[string]map[string]ModuleConfig `yaml:"firewall_overrides" mapstructure:"firewall_overrides"`
}

// ModuleConfig toggles one stat module and its individual collections.
type ModuleConfig struct {
	Enabled     *bool           `yaml:"enabled,omitempty" mapstructure:"enabled"`
	Collections map[string]bool `yaml:"collections" mapstructure:"collections"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	Color string `yaml:"color" mapstructure:"color"`

	// Format: "json" or "table".
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:   CurrentConfigVersion,
		Firewalls: make(map[string]Firewall),
		Query: QueryConfig{
			MaxAttempts:    3,
			RetryDelay:     5 * time.Second,
			MaxConcurrency: 5,
		},
		HostnameCache: HostnameCacheConfig{
			Enabled: true,
			TTL:     6 * time.Hour,
			File:    "hostname_cache.json",
		},
		Stats: StatsConfig{
			Modules:           make(map[string]ModuleConfig),
			FirewallOverrides: make(map[string]map[string]ModuleConfig),
		},
		Output: OutputConfig{
			Color:  "auto",
			Format: "json",
		},
	}
}

// FirewallNames returns all configured firewall names, sorted for
// deterministic iteration.
func (c *Config) FirewallNames() []string {
	names := make([]string, 0, len(c.Firewalls))
	for name := range c.Firewalls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledFirewalls returns the subset of profiles that participate in
// dispatch, keyed by name.
func (c *Config) EnabledFirewalls() map[string]Firewall {
	enabled := make(map[string]Firewall)
	for name, fw := range c.Firewalls {
		if fw.IsEnabled() {
			enabled[name] = fw
		}
	}
	return enabled
}

// ModuleEnabled reports whether a stat module should run, honoring
// per-firewall overrides first, then the global module toggle.
// Unconfigured modules default to enabled.
func (c *Config) ModuleEnabled(module, firewall string) bool {
	if firewall != "" {
		if overrides, ok := c.Stats.FirewallOverrides[firewall]; ok {
			if mc, ok := overrides[module]; ok && mc.Enabled != nil {
				return *mc.Enabled
			}
		}
	}
	if mc, ok := c.Stats.Modules[module]; ok && mc.Enabled != nil {
		return *mc.Enabled
	}
	return true
}

// CollectionEnabled reports whether a single collection within a module
// should run. A disabled module disables all of its collections.
func (c *Config) CollectionEnabled(module, collection, firewall string) bool {
	if !c.ModuleEnabled(module, firewall) {
		return false
	}
	if firewall != "" {
		if overrides, ok := c.Stats.FirewallOverrides[firewall]; ok {
			if mc, ok := overrides[module]; ok {
				if v, ok := mc.Collections[collection]; ok {
					return v
				}
			}
		}
	}
	if mc, ok := c.Stats.Modules[module]; ok {
		if v, ok := mc.Collections[collection]; ok {
			return v
		}
	}
	return true
}
