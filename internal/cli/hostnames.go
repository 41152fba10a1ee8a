package cli

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/ui"
)

var hostnamesClear bool

// hostnamesCmd inspects or clears the persisted hostname cache.
var hostnamesCmd = &cobra.Command{
	Use:   "hostnames",
	Short: "Show or clear the cached firewall hostnames",
	Long: `List the self-reported hostnames cached from previous runs, with
their age. Entries older than hostname_cache.ttl are re-resolved on the
next query.

Examples:
  pastats hostnames
  pastats hostnames --clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient()
		if err != nil {
			return err
		}

		cache := client.HostnameCache()
		if cache == nil {
			return errors.New(errors.ErrConfig,
				"Hostname caching is disabled",
				"Enable it with hostname_cache.enabled: true in pastats.yaml.")
		}

		if hostnamesClear {
			for name := range client.Config().Firewalls {
				cache.Invalidate(name)
			}
			cmd.Println("Hostname cache cleared.")
			return nil
		}

		entries := cache.Entries()
		if len(entries) == 0 {
			cmd.Println("No cached hostnames. They are resolved on the first query.")
			return nil
		}

		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			entry := entries[name]
			rows = append(rows, []string{
				name,
				entry.Hostname,
				time.Since(entry.ResolvedAt).Round(time.Minute).String(),
			})
		}
		cmd.Println(ui.RenderSimpleTable([]ui.TableColumn{
			{Title: "FIREWALL", Width: 16},
			{Title: "HOSTNAME", Width: 24},
			{Title: "AGE", Width: 10},
		}, rows))
		return nil
	},
}

func init() {
	hostnamesCmd.Flags().BoolVar(&hostnamesClear, "clear", false, "drop all cached hostnames")
	rootCmd.AddCommand(hostnamesCmd)
}
