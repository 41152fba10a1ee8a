package monitor

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pastats/pastats/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModel() Model {
	m := Model{
		history:  NewHistory(8),
		firewall: "fw-a",
		interval: time.Second,
	}
	return m
}

func TestModel_RatesMsgUpdatesHistory(t *testing.T) {
	m := testModel()

	updated, cmd := m.Update(ratesMsg{
		rates: []Rate{{Name: "ethernet1/1", RxBps: 2048, TxBps: 1024}},
		time:  time.Now(),
	})
	require.Nil(t, cmd)

	model := updated.(Model)
	assert.Equal(t, []float64{2048}, model.history.Rx("ethernet1/1"))

	view := model.View()
	assert.Contains(t, view, "ethernet1/1")
	assert.Contains(t, view, "2.0 KB/s")
	assert.Contains(t, view, "1.0 KB/s")
}

func TestModel_QuitKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
	}
	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			m := testModel()
			updated, cmd := m.Update(key)
			require.NotNil(t, cmd)
			assert.True(t, updated.(Model).quitting)
		})
	}
}

func TestModel_TransientPollErrorKeepsRunning(t *testing.T) {
	m := testModel()
	updated, cmd := m.Update(pollErrMsg{err: errors.New(errors.ErrTimeout, "Request timed out", "")})
	assert.Nil(t, cmd)

	model := updated.(Model)
	assert.False(t, model.quitting)
	assert.Contains(t, model.View(), "Request timed out")
}

func TestModel_AuthErrorQuits(t *testing.T) {
	m := testModel()
	updated, cmd := m.Update(pollErrMsg{err: errors.New(errors.ErrUnauthorized, "API key rejected", "")})
	require.NotNil(t, cmd)
	assert.True(t, updated.(Model).quitting)
}

func TestModel_BaselineView(t *testing.T) {
	view := testModel().View()
	assert.Contains(t, view, "fw-a")
	assert.Contains(t, view, "collecting baseline")
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "512 B/s", FormatRate(512))
	assert.Equal(t, "2.0 KB/s", FormatRate(2048))
	assert.Equal(t, "1.5 MB/s", FormatRate(1.5*1024*1024))
	assert.True(t, strings.HasSuffix(FormatRate(3<<30), "GB/s"))
}
