package cli

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/ui"
)

// validateCmd checks config syntax and authenticates against the fleet.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config and test authentication against every firewall",
	Long: `Check the configuration for problems, then issue one authentication
probe per enabled firewall. No statistics are collected.

Examples:
  pastats validate
  pastats validate --config ./pastats.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildClient()
		if err != nil {
			return err
		}

		valid, err := client.ValidateConfig(context.Background())
		if err != nil {
			return err
		}

		names := make([]string, 0, len(valid))
		for name := range valid {
			names = append(names, name)
		}
		sort.Strings(names)

		failures := 0
		for _, name := range names {
			if valid[name] {
				cmd.Println(ui.SuccessStyle.Render(ui.SymbolSuccess) + " " + name)
			} else {
				cmd.Println(ui.ErrorStyle.Render(ui.SymbolFail) + " " + name)
				failures++
			}
		}

		if failures > 0 {
			return errors.New(errors.ErrUnauthorized,
				"Authentication failed for some firewalls",
				"Check the api_key entries; keys expire with admin password changes.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
