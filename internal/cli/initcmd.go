package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/panos"
	"github.com/pastats/pastats/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Name           string // Pre-specified firewall name
	Host           string // Pre-specified management address
	APIKey         string // Pre-specified API key
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags only
}

// Init creates a new pastats.yaml configuration file.
func Init(opts InitOptions) error {
	configPath := filepath.Join(".", config.ConfigFileName)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		var overwrite bool

		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", config.ConfigFileName)).
					Value(&overwrite),
			),
		)

		if err := form.Run(); err != nil {
			return errors.WrapWithSuggestion(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}

		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	name := opts.Name
	host := opts.Host
	apiKey := opts.APIKey
	var location string

	if opts.NonInteractive {
		if host == "" || apiKey == "" {
			return errors.New(errors.ErrConfig,
				"Host and API key are required in non-interactive mode",
				"Provide --host and --api-key, or run interactively")
		}
		if name == "" {
			name = "default"
		}
	} else {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Firewall name").
					Description("A friendly name for this firewall in your config").
					Placeholder("fw-east").
					Value(&name).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("firewall name is required")
						}
						if strings.ContainsAny(s, " \t\n") {
							return fmt.Errorf("firewall name cannot contain whitespace")
						}
						return nil
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Management address").
					Description("IP or DNS name of the management interface").
					Placeholder("192.168.1.1").
					Value(&host).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("management address is required")
						}
						return nil
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("API key").
					Description("Generated via 'type=keygen' on the firewall; stored in pastats.yaml").
					EchoMode(huh.EchoModePassword).
					Value(&apiKey).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return fmt.Errorf("API key is required")
						}
						return nil
					}),
			),
			huh.NewGroup(
				huh.NewInput().
					Title("Location (optional)").
					Description("Site tag for summaries and metrics").
					Placeholder("us-east (leave empty to skip)").
					Value(&location),
			),
		)

		if err := form.Run(); err != nil {
			return errors.WrapWithSuggestion(err, errors.ErrConfig,
				"Failed to get user input",
				"Check terminal compatibility or use --non-interactive with --host and --api-key")
		}
	}

	cfg := config.DefaultConfig()
	cfg.Firewalls[name] = config.Firewall{
		Host:        host,
		Port:        443,
		APIKey:      apiKey,
		Timeout:     30 * time.Second,
		Location:    location,
		RoutingMode: "auto",
	}
	cfg.Default = name

	// Test authentication before saving
	fmt.Println()
	spinner := ui.NewSpinner("Testing connection to " + host)
	spinner.Start()

	probeErr := probeFirewall(cfg, name)
	if probeErr != nil {
		spinner.Fail()

		var saveAnyway bool
		if !opts.NonInteractive {
			fmt.Printf("\n%s Connection to '%s' failed: %s\n\n",
				ui.SymbolFail, host, errors.Summary(probeErr))

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Save config anyway? (You can fix the connection later)").
						Value(&saveAnyway),
				),
			)

			if formErr := form.Run(); formErr != nil || !saveAnyway {
				return probeErr
			}
		} else {
			return probeErr
		}
	} else {
		spinner.Success()
		fmt.Println()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithSuggestion(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	header := `# pastats configuration
# Run 'pastats all-stats' to collect from every firewall
# See 'pastats modules' for the available stats modules

`
	content := header + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		return errors.WrapWithSuggestion(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Printf("%s Created %s\n\n", ui.SymbolSuccess, configPath)
	fmt.Println("Next steps:")
	fmt.Println("  pastats validate   - Test authentication against the fleet")
	fmt.Println("  pastats system     - Collect system stats")
	fmt.Println("  pastats all-stats  - Collect everything")

	return nil
}

// probeFirewall issues one authentication check against the named
// firewall in cfg.
func probeFirewall(cfg *config.Config, name string) error {
	client, err := panos.NewClient(cfg, logger.Default())
	if err != nil {
		return err
	}
	valid, err := client.ValidateConfig(context.Background())
	if err != nil {
		return err
	}
	if !valid[name] {
		return errors.New(errors.ErrUnauthorized,
			fmt.Sprintf("Authentication to '%s' failed", name),
			"Check the API key; keys expire with admin password changes.")
	}
	return nil
}

var (
	initNameFlag           string
	initHostFlag           string
	initAPIKeyFlag         string
	initForceFlag          bool
	initNonInteractiveFlag bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pastats.yaml config file",
	Long: `Create a pastats.yaml in the current directory, prompting for the
first firewall's connection details and testing authentication before
saving.

Examples:
  pastats init
  pastats init --non-interactive --host 192.168.1.1 --api-key LUFRPT1...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(InitOptions{
			Name:           initNameFlag,
			Host:           initHostFlag,
			APIKey:         initAPIKeyFlag,
			Overwrite:      initForceFlag,
			NonInteractive: initNonInteractiveFlag,
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initNameFlag, "name", "", "firewall name in the config")
	initCmd.Flags().StringVar(&initHostFlag, "host", "", "management address")
	initCmd.Flags().StringVar(&initAPIKeyFlag, "api-key", "", "API key for the firewall")
	initCmd.Flags().BoolVar(&initForceFlag, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNonInteractiveFlag, "non-interactive", false, "skip prompts, use flags only")
	rootCmd.AddCommand(initCmd)
}
