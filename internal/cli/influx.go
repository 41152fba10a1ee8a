package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/influx"
	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/stats"
)

// influxCmd collects all stats and emits InfluxDB line protocol.
var influxCmd = &cobra.Command{
	Use:   "influx",
	Short: "Collect all stats and print InfluxDB line protocol",
	Long: `Run every enabled stats module and convert the results to InfluxDB
line protocol, tagged by firewall hostname. Failed firewalls are
skipped; the rest of the fleet still converts.

Examples:
  pastats influx
  pastats influx --output-file metrics.txt
  pastats influx | curl -s -XPOST 'http://influxdb:8086/write?db=pa' --data-binary @-`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient()
		if err != nil {
			return err
		}

		runner := stats.NewRunner(client, logger.Default())
		outcomes, err := runner.Run(context.Background(), stats.All(), targetFirewalls())
		if err != nil {
			return err
		}

		converter := influx.NewConverter(time.Now(), logger.Default())
		lines, err := converter.Convert(outcomes)
		if err != nil {
			return err
		}

		if err := writeOutput(string(lines)); err != nil {
			return err
		}
		return exitError(outcomes)
	},
}

func init() {
	rootCmd.AddCommand(influxCmd)
}
