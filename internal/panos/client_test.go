package panos

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/hostcache"
	"github.com/pastats/pastats/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport scripts per-host responses and counts calls.
type fakeTransport struct {
	mu      sync.Mutex
	calls   map[string]int
	respond func(host string, call int) (map[string]any, error)
}

func newFakeTransport(respond func(host string, call int) (map[string]any, error)) *fakeTransport {
	return &fakeTransport{calls: make(map[string]int), respond: respond}
}

func (f *fakeTransport) Execute(ctx context.Context, fw config.Firewall, cred Credential, req OpRequest) (map[string]any, error) {
	f.mu.Lock()
	f.calls[fw.Host]++
	call := f.calls[fw.Host]
	f.mu.Unlock()
	return f.respond(fw.Host, call)
}

func (f *fakeTransport) callCount(host string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[host]
}

func clientConfig(hosts ...string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Query.MaxAttempts = 3
	cfg.Query.RetryDelay = time.Millisecond
	cfg.HostnameCache.Enabled = false
	for _, h := range hosts {
		cfg.Firewalls[h] = config.Firewall{
			Host:    h + ".example.net",
			Port:    443,
			APIKey:  "key-" + h,
			Timeout: time.Second,
		}
	}
	return cfg
}

func successPayload(hostname string) map[string]any {
	return map[string]any{
		"@status": "success",
		"result": map[string]any{
			"system": map[string]any{"hostname": hostname, "uptime": "42"},
		},
	}
}

var systemInfoOp = Operation{
	ID:      "system-info",
	Command: authProbeCommand,
}

func TestNewClient_RequiresEnabledFirewalls(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := NewClient(cfg, logger.Noop())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestNewClient_RequiresAPIKeys(t *testing.T) {
	cfg := clientConfig("fw-a")
	fw := cfg.Firewalls["fw-a"]
	fw.APIKey = ""
	cfg.Firewalls["fw-a"] = fw

	_, err := NewClient(cfg, logger.Noop())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestClient_RunOn(t *testing.T) {
	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		return successPayload("fw-lab-01"), nil
	})
	c, err := NewClient(clientConfig("fw-a"), logger.Noop(), WithTransport(ft))
	require.NoError(t, err)

	out := c.RunOn(context.Background(), "fw-a", systemInfoOp)
	require.True(t, out.Success, "unexpected error: %v", out.Err)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "fw-a", out.Hostname, "config name is the identity with caching off")

	result := out.Data["result"].(map[string]any)
	system := result["system"].(map[string]any)
	assert.Equal(t, int64(42), system["uptime"], "payload must be normalized")
}

func TestClient_RunOn_UnknownFirewall(t *testing.T) {
	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		return successPayload("x"), nil
	})
	c, err := NewClient(clientConfig("fw-a"), logger.Noop(), WithTransport(ft))
	require.NoError(t, err)

	outcomes, err := c.RunOnNamed(context.Background(), []string{"nope"}, systemInfoOp)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Nil(t, outcomes)
}

// The canonical mixed-fleet scenario: one healthy firewall, one that
// recovers before attempts run out, one with a bad credential.
func TestClient_RunOnAll_MixedOutcomes(t *testing.T) {
	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		switch host {
		case "fw-a.example.net":
			return successPayload("fw-lab-a"), nil
		case "fw-b.example.net":
			if call < 3 {
				return nil, errors.New(errors.ErrTimeout, "Request timed out", "")
			}
			return successPayload("fw-lab-b"), nil
		default:
			return nil, errors.New(errors.ErrUnauthorized, "API key rejected", "")
		}
	})
	c, err := NewClient(clientConfig("fw-a", "fw-b", "fw-c"), logger.Noop(), WithTransport(ft))
	require.NoError(t, err)

	outcomes, err := c.RunOnAll(context.Background(), systemInfoOp)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes["fw-a"].Success)
	assert.Equal(t, 1, outcomes["fw-a"].Attempts)

	assert.True(t, outcomes["fw-b"].Success, "fw-b must recover before attempts run out")
	assert.Equal(t, 3, outcomes["fw-b"].Attempts)

	require.False(t, outcomes["fw-c"].Success)
	assert.True(t, errors.IsCode(outcomes["fw-c"].Err, errors.ErrUnauthorized))
	assert.Equal(t, 1, outcomes["fw-c"].Attempts, "auth failures must not be retried")
	assert.Equal(t, 1, ft.callCount("fw-c.example.net"))
}

func TestClient_RunOnAll_SkipsDisabled(t *testing.T) {
	cfg := clientConfig("fw-a", "fw-b")
	off := false
	fw := cfg.Firewalls["fw-b"]
	fw.Enabled = &off
	cfg.Firewalls["fw-b"] = fw

	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		return successPayload("x"), nil
	})
	c, err := NewClient(cfg, logger.Noop(), WithTransport(ft))
	require.NoError(t, err)

	outcomes, err := c.RunOnAll(context.Background(), systemInfoOp)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Contains(t, outcomes, "fw-a")
	assert.Zero(t, ft.callCount("fw-b.example.net"))
}

func TestClient_ValidateConfig(t *testing.T) {
	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		if host == "fw-b.example.net" {
			return nil, errors.New(errors.ErrUnauthorized, "API key rejected", "")
		}
		return successPayload("x"), nil
	})
	c, err := NewClient(clientConfig("fw-a", "fw-b"), logger.Noop(), WithTransport(ft))
	require.NoError(t, err)

	valid, err := c.ValidateConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"fw-a": true, "fw-b": false}, valid)
}

func TestClient_HostnameResolution(t *testing.T) {
	ft := newFakeTransport(func(host string, call int) (map[string]any, error) {
		if host == "fw-b.example.net" {
			return nil, errors.New(errors.ErrUnreachable, "Cannot reach fw-b", "")
		}
		return successPayload("fw-lab-a"), nil
	})

	cfg := clientConfig("fw-a", "fw-b")
	cache := hostcache.New(filepath.Join(t.TempDir(), "hostnames.json"), time.Hour, logger.Noop())
	c, err := NewClient(cfg, logger.Noop(), WithTransport(ft), WithHostnameCache(cache))
	require.NoError(t, err)

	outcomes, err := c.RunOnAll(context.Background(), systemInfoOp)
	require.NoError(t, err)

	assert.Equal(t, "fw-lab-a", outcomes["fw-a"].Hostname, "self-reported hostname wins when resolvable")
	assert.Equal(t, "fw-b", outcomes["fw-b"].Hostname, "unresolvable hosts fall back to the config name")
	assert.False(t, outcomes["fw-b"].Success)
}
