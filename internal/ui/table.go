package ui

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
)

// TableColumn defines a table column with title and width.
type TableColumn struct {
	Title string
	Width int
}

// NewTable creates a Bubbles table with the shared styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{Title: c.Title, Width: c.Width}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(string(ColorMuted))).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Cell = s.Cell.
		Foreground(lipgloss.Color(string(ColorPrimary)))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(string(ColorPrimary))).
		Background(lipgloss.Color(string(ColorMuted))).
		Bold(false)
	t.SetStyles(s)
	return t
}

// RenderSimpleTable renders a non-interactive table string for CLI
// output.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}
	return NewTable(columns, tableRows).View()
}

// RenderFleetTable renders per-firewall outcomes as a status table,
// sorted by firewall name so runs diff cleanly.
func RenderFleetTable(outcomes map[string]fleet.Outcome) string {
	names := make([]string, 0, len(outcomes))
	for name := range outcomes {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		out := outcomes[name]

		status := SuccessStyle.Render(SymbolSuccess)
		detail := "ok"
		if !out.Success {
			status = ErrorStyle.Render(SymbolFail)
			detail = truncate(errorDetail(out.Err), 48)
		}
		if out.Hostname == "" {
			out.Hostname = name
		}

		rows = append(rows, []string{
			status,
			name,
			out.Hostname,
			fmt.Sprintf("%d", out.Attempts),
			out.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}

	return RenderSimpleTable([]TableColumn{
		{Title: "", Width: 2},
		{Title: "FIREWALL", Width: 16},
		{Title: "HOSTNAME", Width: 20},
		{Title: "TRIES", Width: 5},
		{Title: "TIME", Width: 10},
		{Title: "DETAIL", Width: 48},
	}, rows)
}

func errorDetail(err error) string {
	if err == nil {
		return "failed"
	}
	return errors.Summary(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// StdoutIsTerminal reports whether stdout is a TTY; callers drop color
// and interactivity when it is not.
func StdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
