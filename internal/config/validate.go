package config

import (
	"fmt"
	"strings"

	"github.com/pastats/pastats/internal/errors"
)

// Validate checks the loaded config for problems that would make every
// dispatch fail. It returns a single CONFIG error listing everything
// wrong, so users fix their file in one pass.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Firewalls) == 0 {
		return errors.New(errors.ErrConfig,
			"No firewalls configured",
			"Add at least one firewall to "+ConfigFileName+" or set PA_HOST.")
	}

	if len(c.EnabledFirewalls()) == 0 {
		return errors.New(errors.ErrConfig,
			"All configured firewalls are disabled",
			"Enable at least one firewall (enabled: true).")
	}

	for _, name := range c.FirewallNames() {
		fw := c.Firewalls[name]
		if fw.Host == "" {
			problems = append(problems, fmt.Sprintf("firewall %q has no host", name))
		}
		if fw.Port < 1 || fw.Port > 65535 {
			problems = append(problems, fmt.Sprintf("firewall %q has invalid port %d", name, fw.Port))
		}
		if fw.APIKey == "" && fw.IsEnabled() {
			problems = append(problems, fmt.Sprintf("firewall %q has no api_key", name))
		}
		switch fw.RoutingMode {
		case "", "auto", "legacy", "advanced":
		default:
			problems = append(problems, fmt.Sprintf("firewall %q has unknown routing_mode %q", name, fw.RoutingMode))
		}
	}

	if c.Default != "" {
		if _, ok := c.Firewalls[c.Default]; !ok {
			problems = append(problems, fmt.Sprintf("default firewall %q is not configured", c.Default))
		}
	}

	if c.Query.MaxAttempts < 1 {
		problems = append(problems, "query.max_attempts must be at least 1")
	}
	if c.Query.MaxConcurrency < 1 {
		problems = append(problems, "query.max_concurrency must be at least 1")
	}
	if c.Query.RetryDelay < 0 {
		problems = append(problems, "query.retry_delay must not be negative")
	}
	if c.HostnameCache.Enabled && c.HostnameCache.TTL <= 0 {
		problems = append(problems, "hostname_cache.ttl must be positive when the cache is enabled")
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrConfig,
			"Invalid configuration:\n    - "+strings.Join(problems, "\n    - "),
			"Fix "+ConfigFileName+" and retry.")
	}

	return nil
}
