package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/stats"
)

// statsCommand runs the named modules across the fleet and renders the
// outcomes.
func statsCommand(moduleNames ...string) error {
	client, err := buildClient()
	if err != nil {
		return err
	}

	modules, err := stats.ByName(moduleNames...)
	if err != nil {
		return err
	}

	runner := stats.NewRunner(client, logger.Default())
	outcomes, err := runner.Run(context.Background(), modules, targetFirewalls())
	if err != nil {
		return err
	}

	if err := renderOutcomes(client.Config(), outcomes); err != nil {
		return err
	}
	return exitError(outcomes)
}

var systemCmd = &cobra.Command{
	Use:     "system",
	Aliases: []string{"system-info"},
	Short:   "Collect system info, resources, disk, and HA state",
	Long: `Query system-level statistics from every enabled firewall.

Collections: system_info, resource_usage, disk_usage, ha_status,
environmental, hardware_info, extended_cpu. Individual collections can
be disabled under stats.modules.system in pastats.yaml.

Examples:
  pastats system
  pastats system --firewall fw-east --output table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("system")
	},
}

var interfacesCmd = &cobra.Command{
	Use:     "interfaces",
	Aliases: []string{"interface-stats"},
	Short:   "Collect interface state and traffic counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("network_interfaces")
	},
}

var routingCmd = &cobra.Command{
	Use:     "routing",
	Aliases: []string{"routing-info"},
	Short:   "Collect BGP state and routing tables",
	Long: `Query BGP summaries, peer status, path monitors, and routing tables.

The routing engine (legacy or advanced) is detected per firewall, or
pinned with routing_mode in the firewall's config entry. Results are
normalized to one shape regardless of engine.

Examples:
  pastats routing
  pastats routing --firewall fw-east`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("routing")
	},
}

var vpnCmd = &cobra.Command{
	Use:     "vpn",
	Aliases: []string{"vpn-tunnels"},
	Short:   "Collect IPsec tunnel and IKE gateway state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("vpn_tunnels")
	},
}

var globalProtectCmd = &cobra.Command{
	Use:     "globalprotect",
	Aliases: []string{"global-protect"},
	Short:   "Collect GlobalProtect gateway and portal state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("global_protect")
	},
}

var countersCmd = &cobra.Command{
	Use:     "counters",
	Aliases: []string{"global-counters"},
	Short:   "Collect dataplane global counters and session statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand("global_counters")
	},
}

var allStatsCmd = &cobra.Command{
	Use:   "all-stats",
	Short: "Collect every stats module in one run",
	Long: `Run every enabled stats module against every enabled firewall.

This is the collection entry point for scheduled runs feeding a
time-series database:

  pastats all-stats --output json --output-file complete_stats.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsCommand(stats.Names()...)
	},
}

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List available stats modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, m := range stats.All() {
			cmd.Printf("%-20s %s\n", m.Name, m.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(systemCmd)
	rootCmd.AddCommand(interfacesCmd)
	rootCmd.AddCommand(routingCmd)
	rootCmd.AddCommand(vpnCmd)
	rootCmd.AddCommand(globalProtectCmd)
	rootCmd.AddCommand(countersCmd)
	rootCmd.AddCommand(allStatsCmd)
	rootCmd.AddCommand(modulesCmd)
}
