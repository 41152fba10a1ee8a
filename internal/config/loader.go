package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "pastats.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/pastats"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithSuggestion(err, errors.ErrConfig,
				"Config file not found",
				"Run 'pastats init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithSuggestion(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. PA_CONFIG_FILE environment variable
// 3. pastats.yaml in current directory
// 4. ~/.config/pastats/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithSuggestion(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithSuggestion(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	if envPath := os.Getenv("PA_CONFIG_FILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithSuggestion(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads config from the found path, or returns defaults if
// not found. Useful for commands like 'pastats init' that must work
// without an existing config.
func LoadOrDefault() (*Config, error) {
	path, err := Find("")
	if err != nil {
		return nil, err
	}

	if path == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	return Load(path)
}

// parseConfig converts viper config to our Config struct with defaults
// merged in, then applies environment overrides.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v)

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithSuggestion(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	applyProfileDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// setDefaults configures viper-level defaults that merge under the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("query.max_attempts", 3)
	v.SetDefault("query.retry_delay", "5s")
	v.SetDefault("query.max_concurrency", 5)
	v.SetDefault("hostname_cache.enabled", true)
	v.SetDefault("hostname_cache.ttl", "6h")
	v.SetDefault("hostname_cache.file", "hostname_cache.json")
	v.SetDefault("output.color", "auto")
	v.SetDefault("output.format", "json")
}

// applyProfileDefaults fills per-firewall zero values.
func applyProfileDefaults(cfg *Config) {
	for name, fw := range cfg.Firewalls {
		if fw.Port == 0 {
			fw.Port = 443
		}
		if fw.Timeout == 0 {
			fw.Timeout = 30 * time.Second
		}
		if fw.RoutingMode == "" {
			fw.RoutingMode = "auto"
		}
		cfg.Firewalls[name] = fw
	}
}

// applyEnvOverrides lets PA_* environment variables override the first
// firewall (by sorted name) and the query settings, matching the
// single-firewall quick-start workflow.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PA_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Query.MaxAttempts = n
		}
	}
	if v := os.Getenv("PA_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Query.RetryDelay = d
		}
	}

	names := cfg.FirewallNames()
	if len(names) == 0 {
		// A bare PA_HOST with no config file still yields a usable
		// single-firewall fleet.
		if host := os.Getenv("PA_HOST"); host != "" {
			cfg.Firewalls["default"] = Firewall{
				Host:        host,
				Port:        443,
				Timeout:     30 * time.Second,
				RoutingMode: "auto",
			}
			names = []string{"default"}
		} else {
			return
		}
	}

	first := cfg.Firewalls[names[0]]
	if v := os.Getenv("PA_HOST"); v != "" {
		first.Host = v
	}
	if v := os.Getenv("PA_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			first.Port = n
		}
	}
	if v := os.Getenv("PA_API_KEY"); v != "" {
		first.APIKey = v
	}
	if v := os.Getenv("PA_VERIFY_TLS"); v != "" {
		first.VerifyTLS = parseBool(v)
	}
	if v := os.Getenv("PA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			first.Timeout = d
		}
	}
	cfg.Firewalls[names[0]] = first
}

// parseBool accepts the usual truthy spellings.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}
