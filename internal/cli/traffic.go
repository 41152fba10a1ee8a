package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/monitor"
)

var trafficIntervalFlag string

// trafficCmd starts the live per-interface traffic dashboard.
var trafficCmd = &cobra.Command{
	Use:   "traffic <firewall>",
	Short: "Live interface traffic dashboard for one firewall",
	Long: `Start an interactive dashboard polling interface counters on one
firewall and charting per-interface throughput.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  r           Force refresh

Examples:
  pastats traffic fw-east
  pastats traffic fw-east --interval 2s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := monitor.DefaultPollInterval
		if trafficIntervalFlag != "" {
			parsed, err := time.ParseDuration(trafficIntervalFlag)
			if err != nil {
				return errors.WrapWithSuggestion(err, errors.ErrConfig,
					fmt.Sprintf("Invalid interval: %s", trafficIntervalFlag),
					"Use a valid duration like 2s, 5s, or 1m.")
			}
			if parsed < time.Second {
				return errors.New(errors.ErrConfig,
					"Interval too short",
					"Minimum interval is 1s; faster polling overloads the management plane.")
			}
			interval = parsed
		}

		client, err := buildClient()
		if err != nil {
			return err
		}

		firewall := args[0]
		if _, ok := client.Config().Firewalls[firewall]; !ok {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Unknown firewall %q", firewall),
				"Check the name against the firewalls section of the config.")
		}

		return monitor.Run(client, firewall, interval)
	},
}

func init() {
	trafficCmd.Flags().StringVar(&trafficIntervalFlag, "interval", "5s", "poll interval (e.g., 2s, 5s, 1m)")
	rootCmd.AddCommand(trafficCmd)
}
