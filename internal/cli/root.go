// Package cli wires the pastats commands: per-module stats queries,
// fleet validation, hostname cache management, line-protocol export,
// the live traffic viewer, and config scaffolding.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/panos"
	"github.com/pastats/pastats/internal/ui"
)

// Persistent flags shared by every query command.
var (
	configFlag      string
	firewallFlag    string
	outputFlag      string
	outputFileFlag  string
	concurrencyFlag int
)

var rootCmd = &cobra.Command{
	Use:   "pastats",
	Short: "Read-only statistics collector for Palo Alto firewall fleets",
	Long: `pastats queries the PAN-OS XML API across a fleet of firewalls and
collects system, interface, routing, VPN, GlobalProtect, and counter
statistics. All operations are read-only.

Firewalls are configured in pastats.yaml; every query fans out across
the enabled fleet with bounded concurrency, and one slow or broken
firewall never blocks the rest.

Examples:
  pastats system
  pastats interfaces --firewall fw-east,fw-west
  pastats all-stats --output json --output-file stats.json
  pastats influx | curl -s -XPOST 'http://influxdb:8086/write?db=pa' --data-binary @-
  pastats traffic fw-east`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "config file (default: ./pastats.yaml)")
	rootCmd.PersistentFlags().StringVarP(&firewallFlag, "firewall", "f", "", "restrict to specific firewalls (comma-separated)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "output format: json or table (default: config output.format)")
	rootCmd.PersistentFlags().StringVar(&outputFileFlag, "output-file", "", "write output to a file instead of stdout")
	rootCmd.PersistentFlags().IntVar(&concurrencyFlag, "concurrency", 0, "max concurrent firewall queries (default: config query.max_concurrency)")
}

// loadConfig resolves and validates the effective configuration with
// command-line overrides applied.
func loadConfig() (*config.Config, error) {
	path, err := config.Find(configFlag)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path == "" {
		// No file anywhere; env vars may still describe a fleet.
		cfg, err = config.LoadOrDefault()
		if err != nil {
			return nil, err
		}
		if len(cfg.Firewalls) == 0 {
			return nil, errors.New(errors.ErrConfig,
				"No config file found",
				"Run 'pastats init' to create one, or set PA_HOST and PA_API_KEY.")
		}
	} else {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}

	if concurrencyFlag > 0 {
		cfg.Query.MaxConcurrency = concurrencyFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ui.ApplyColorMode(cfg.Output.Color)
	return cfg, nil
}

// buildClient assembles the client for query commands.
func buildClient() (*panos.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return panos.NewClient(cfg, logger.Default())
}

// targetFirewalls parses the --firewall filter into a name list; nil
// means the whole enabled fleet.
func targetFirewalls() []string {
	if firewallFlag == "" {
		return nil
	}
	var names []string
	for _, name := range strings.Split(firewallFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
