package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/panos"
	"github.com/pastats/pastats/internal/ui"
)

// DefaultPollInterval balances freshness against management-plane load.
const DefaultPollInterval = 5 * time.Second

const sparklineWidth = 30

// tickMsg signals the next poll.
type tickMsg time.Time

// ratesMsg carries one poll's derived rates.
type ratesMsg struct {
	rates []Rate
	time  time.Time
}

// pollErrMsg carries a failed poll; transient failures keep the
// dashboard running with stale data.
type pollErrMsg struct{ err error }

// Model is the Bubble Tea model for the traffic dashboard.
type Model struct {
	collector *Collector
	history   *History
	firewall  string
	interval  time.Duration

	rates      []Rate
	lastErr    error
	lastUpdate time.Time
	width      int
	height     int
	polling    bool
	quitting   bool
}

// NewModel builds the dashboard model for one firewall.
func NewModel(client *panos.Client, firewall string, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return Model{
		collector: NewCollector(client, firewall),
		history:   NewHistory(DefaultHistorySize),
		firewall:  firewall,
		interval:  interval,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.poll(), m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) poll() tea.Cmd {
	collector := m.collector
	interval := m.interval
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		defer cancel()

		rates, err := collector.Poll(ctx)
		if err != nil {
			return pollErrMsg{err: err}
		}
		return ratesMsg{rates: rates, time: time.Now()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.polling {
				m.polling = true
				return m, m.poll()
			}
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{m.tick()}
		if !m.polling {
			m.polling = true
			cmds = append(cmds, m.poll())
		}
		return m, tea.Batch(cmds...)

	case ratesMsg:
		m.polling = false
		m.rates = msg.rates
		m.lastUpdate = msg.time
		m.lastErr = nil
		m.history.Push(msg.rates)
		return m, nil

	case pollErrMsg:
		m.polling = false
		m.lastErr = msg.err
		// Auth failures will not heal on the next tick.
		if errors.IsCode(msg.err, errors.ErrUnauthorized) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(ui.HeaderStyle.Render("Traffic · "+m.firewall) + "\n")

	switch {
	case m.lastErr != nil:
		b.WriteString(ui.ErrorStyle.Render(ui.SymbolFail+" "+errors.Summary(m.lastErr)) + "\n")
	case m.lastUpdate.IsZero():
		b.WriteString(ui.MutedStyle.Render(ui.SymbolProgress+" collecting baseline...") + "\n")
	default:
		b.WriteString(ui.MutedStyle.Render("updated "+m.lastUpdate.Format("15:04:05")) + "\n")
	}
	b.WriteString("\n")

	if len(m.rates) > 0 {
		b.WriteString(m.renderTable())
		b.WriteString("\n")
	}

	b.WriteString(ui.MutedStyle.Render("q quit · r refresh"))
	return b.String()
}

func (m Model) renderTable() string {
	rows := make([][]string, 0, len(m.rates))
	for _, r := range m.rates {
		rows = append(rows, []string{
			r.Name,
			FormatRate(r.RxBps),
			ui.RenderSparkline(m.history.Rx(r.Name), sparklineWidth, 0),
			FormatRate(r.TxBps),
			ui.RenderSparkline(m.history.Tx(r.Name), sparklineWidth, 0),
		})
	}

	return ui.RenderSimpleTable([]ui.TableColumn{
		{Title: "INTERFACE", Width: 16},
		{Title: "RX", Width: 12},
		{Title: "", Width: sparklineWidth},
		{Title: "TX", Width: 12},
		{Title: "", Width: sparklineWidth},
	}, rows)
}

// FormatRate renders bytes/second in a human scale.
func FormatRate(bps float64) string {
	switch {
	case bps >= 1<<30:
		return fmt.Sprintf("%.1f GB/s", bps/(1<<30))
	case bps >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bps/(1<<20))
	case bps >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bps/(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bps)
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(client *panos.Client, firewall string, interval time.Duration) error {
	p := tea.NewProgram(NewModel(client, firewall, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
