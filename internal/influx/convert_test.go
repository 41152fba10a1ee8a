package influx

import (
	"strings"
	"testing"
	"time"

	"github.com/pastats/pastats/internal/fleet"
	"github.com/pastats/pastats/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func convertLines(t *testing.T, outcomes map[string]fleet.Outcome) []string {
	t.Helper()
	c := NewConverter(testTime, logger.Noop())
	out, err := c.Convert(outcomes)
	require.NoError(t, err)
	text := strings.TrimSpace(string(out))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func TestConvert_SessionCounters(t *testing.T) {
	lines := convertLines(t, map[string]fleet.Outcome{
		"fw-a": {
			Firewall: "fw-a",
			Hostname: "fw-lab-01",
			Success:  true,
			Data: map[string]any{
				"global_counters": map[string]any{
					"session_info": map[string]any{
						"num-active": int64(1234),
						"num-max":    int64(262144),
						"num-tcp":    int64(900),
					},
				},
			},
		},
	})

	require.Len(t, lines, 1)
	line := lines[0]
	assert.True(t, strings.HasPrefix(line, "palo_alto_sessions,hostname=fw-lab-01 "), "got %q", line)
	assert.Contains(t, line, "active=1234i")
	assert.Contains(t, line, "max=262144i")
	assert.True(t, strings.HasSuffix(line, " 1787659200000000000"), "timestamp must be nanoseconds, got %q", line)
}

func TestConvert_InterfaceCounters(t *testing.T) {
	lines := convertLines(t, map[string]fleet.Outcome{
		"fw-a": {
			Firewall: "fw-a",
			Hostname: "fw-lab-01",
			Success:  true,
			Data: map[string]any{
				"network_interfaces": map[string]any{
					"interface_counters": map[string]any{
						"ifnet": map[string]any{
							"ifnet": map[string]any{
								"entry": []any{
									map[string]any{"name": "ethernet1/1", "ibytes": int64(1024), "obytes": int64(2048)},
									map[string]any{"name": "tunnel.1", "ibytes": int64(0), "obytes": int64(0)},
								},
							},
						},
					},
				},
			},
		},
	})

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "interface=ethernet1/1")
	assert.Contains(t, lines[0], "ibytes=1024i")
	assert.Contains(t, lines[1], "interface=tunnel.1")
}

func TestConvert_TagEscaping(t *testing.T) {
	lines := convertLines(t, map[string]fleet.Outcome{
		"fw-a": {
			Firewall: "fw-a",
			Hostname: "fw lab,01",
			Success:  true,
			Data: map[string]any{
				"global_counters": map[string]any{
					"session_info": map[string]any{"num-active": int64(1)},
				},
			},
		},
	})

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `hostname=fw\ lab\,01`)
}

func TestConvert_SkipsFailedFirewalls(t *testing.T) {
	lines := convertLines(t, map[string]fleet.Outcome{
		"fw-bad": {Firewall: "fw-bad", Hostname: "fw-bad", Success: false},
		"fw-ok": {
			Firewall: "fw-ok",
			Hostname: "fw-ok",
			Success:  true,
			Data: map[string]any{
				"global_counters": map[string]any{
					"session_info": map[string]any{"num-active": int64(5)},
				},
			},
		},
	})

	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "hostname=fw-ok")
}

func TestConvert_BGPPeers(t *testing.T) {
	lines := convertLines(t, map[string]fleet.Outcome{
		"fw-a": {
			Firewall: "fw-a",
			Hostname: "fw-lab-01",
			Success:  true,
			Data: map[string]any{
				"routing": map[string]any{
					"bgp_peer_status": map[string]any{
						"azure-er-1": map[string]any{"state": "Established", "status-time": int64(3600)},
						"azure-er-2": map[string]any{"state": "Idle"},
					},
				},
			},
		},
	})

	require.Len(t, lines, 3, "two peers plus a summary")
	assert.Contains(t, lines[0], "peer=azure-er-1")
	assert.Contains(t, lines[0], `state="Established"`)
	summary := lines[2]
	assert.Contains(t, summary, "palo_alto_bgp_summary")
	assert.Contains(t, summary, "peers_total=2i")
	assert.Contains(t, summary, "peers_established=1i")
}

func TestConvert_EmptyFleet(t *testing.T) {
	assert.Nil(t, convertLines(t, map[string]fleet.Outcome{}))
}

func TestConvert_LineCount(t *testing.T) {
	c := NewConverter(testTime, logger.Noop())
	_, err := c.Convert(map[string]fleet.Outcome{
		"fw-a": {
			Firewall: "fw-a", Hostname: "fw-a", Success: true,
			Data: map[string]any{
				"global_counters": map[string]any{
					"session_info": map[string]any{"num-active": int64(1)},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Lines())
}
