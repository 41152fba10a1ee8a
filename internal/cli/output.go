package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
	"github.com/pastats/pastats/internal/ui"
)

// outcomeReport is the JSON shape for one firewall's result.
type outcomeReport struct {
	Hostname string         `json:"hostname"`
	Success  bool           `json:"success"`
	Attempts int            `json:"attempts"`
	Duration string         `json:"duration"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// renderOutcomes formats fleet results in the requested format and
// writes them to stdout or --output-file.
func renderOutcomes(cfg *config.Config, outcomes map[string]fleet.Outcome) error {
	format := outputFlag
	if format == "" {
		format = cfg.Output.Format
	}

	var text string
	switch format {
	case "json", "":
		report := make(map[string]outcomeReport, len(outcomes))
		for name, out := range outcomes {
			r := outcomeReport{
				Hostname: out.Hostname,
				Success:  out.Success,
				Attempts: out.Attempts,
				Duration: out.Duration.Round(time.Millisecond).String(),
				Data:     out.Data,
			}
			if out.Err != nil {
				r.Error = errors.Summary(out.Err)
			}
			report[name] = r
		}
		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrMalformed, "Cannot encode results as JSON")
		}
		text = string(encoded) + "\n"
	case "table":
		text = ui.RenderFleetTable(outcomes) + "\n"
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown output format %q", format),
			"Valid formats: json, table")
	}

	return writeOutput(text)
}

// writeOutput sends text to --output-file when set, stdout otherwise.
func writeOutput(text string) error {
	if outputFileFlag == "" {
		_, err := fmt.Print(text)
		return err
	}
	if err := os.WriteFile(outputFileFlag, []byte(text), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrConfig, "Cannot write output file "+outputFileFlag)
	}
	return nil
}

// exitError reports whether any outcome failed, so commands can exit
// non-zero on partial fleet failure while still printing results.
func exitError(outcomes map[string]fleet.Outcome) error {
	failed := 0
	for _, out := range outcomes {
		if !out.Success {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return errors.New(errors.ErrRemote,
		fmt.Sprintf("%d of %d firewalls failed", failed, len(outcomes)),
		"See the per-firewall results above for details.")
}
