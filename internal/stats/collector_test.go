package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/panos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport answers each command from a fixed script and
// records the commands it saw.
type scriptedTransport struct {
	mu        sync.Mutex
	responses map[string]map[string]any
	failures  map[string]error
	commands  []string
}

func newScriptedTransport() *scriptedTransport {
	return &scriptedTransport{
		responses: make(map[string]map[string]any),
		failures:  make(map[string]error),
	}
}

func (s *scriptedTransport) Execute(ctx context.Context, fw config.Firewall, cred panos.Credential, req panos.OpRequest) (map[string]any, error) {
	s.mu.Lock()
	s.commands = append(s.commands, req.Command)
	s.mu.Unlock()

	if err, ok := s.failures[req.Command]; ok {
		return nil, err
	}
	if resp, ok := s.responses[req.Command]; ok {
		return resp, nil
	}
	return map[string]any{"result": map[string]any{}}, nil
}

func (s *scriptedTransport) sawCommand(cmd string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.commands {
		if c == cmd {
			return true
		}
	}
	return false
}

func runnerFixture(t *testing.T, st *scriptedTransport, mutate func(*config.Config)) *Runner {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Query.MaxAttempts = 1
	cfg.Query.RetryDelay = time.Millisecond
	cfg.HostnameCache.Enabled = false
	cfg.Firewalls["fw-a"] = config.Firewall{
		Host: "fw-a.example.net", Port: 443, APIKey: "key", Timeout: time.Second,
	}
	if mutate != nil {
		mutate(cfg)
	}

	client, err := panos.NewClient(cfg, logger.Noop(), panos.WithTransport(st))
	require.NoError(t, err)

	r := NewRunner(client, logger.Noop())
	r.now = func() time.Time { return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC) }
	return r
}

func testModule() Module {
	return Module{
		Name: "testmod",
		Collections: []Collection{
			{Name: "alpha", Command: "<show><alpha/></show>"},
			{Name: "beta", Command: "<show><beta/></show>"},
		},
	}
}

func TestRunner_CollectsModuleData(t *testing.T) {
	st := newScriptedTransport()
	st.responses["<show><alpha/></show>"] = map[string]any{
		"result": map[string]any{"value": "41"},
	}
	st.responses["<show><beta/></show>"] = map[string]any{
		"result": map[string]any{"value": "42"},
	}
	r := runnerFixture(t, st, nil)

	outcomes, err := r.Run(context.Background(), []Module{testModule()}, nil)
	require.NoError(t, err)

	out := outcomes["fw-a"]
	require.True(t, out.Success, "unexpected error: %v", out.Err)

	mod := out.Data["testmod"].(map[string]any)
	assert.Equal(t, int64(41), mod["alpha"].(map[string]any)["value"], "payload must be normalized")
	assert.Equal(t, "2026-08-25T12:00:00Z", mod["timestamp"])
}

func TestRunner_FailedCollectionDegradesToEmpty(t *testing.T) {
	st := newScriptedTransport()
	st.failures["<show><alpha/></show>"] = errors.NewRemote(17, "unknown command")
	st.responses["<show><beta/></show>"] = map[string]any{
		"result": map[string]any{"value": "42"},
	}
	r := runnerFixture(t, st, nil)

	outcomes, err := r.Run(context.Background(), []Module{testModule()}, nil)
	require.NoError(t, err)

	out := outcomes["fw-a"]
	require.True(t, out.Success, "one failed collection must not fail the firewall")

	mod := out.Data["testmod"].(map[string]any)
	assert.Equal(t, map[string]any{}, mod["alpha"])
	assert.Equal(t, int64(42), mod["beta"].(map[string]any)["value"])
}

func TestRunner_UnauthorizedAbortsFirewall(t *testing.T) {
	st := newScriptedTransport()
	st.failures["<show><alpha/></show>"] = errors.New(errors.ErrUnauthorized, "API key rejected", "")
	r := runnerFixture(t, st, nil)

	outcomes, err := r.Run(context.Background(), []Module{testModule()}, nil)
	require.NoError(t, err)

	out := outcomes["fw-a"]
	require.False(t, out.Success)
	assert.True(t, errors.IsCode(out.Err, errors.ErrUnauthorized))
	assert.False(t, st.sawCommand("<show><beta/></show>"), "remaining collections must be skipped once the key is known bad")
}

func TestRunner_CollectionToggle(t *testing.T) {
	st := newScriptedTransport()
	r := runnerFixture(t, st, func(cfg *config.Config) {
		cfg.Stats.Modules["testmod"] = config.ModuleConfig{
			Collections: map[string]bool{"alpha": false},
		}
	})

	outcomes, err := r.Run(context.Background(), []Module{testModule()}, nil)
	require.NoError(t, err)

	mod := outcomes["fw-a"].Data["testmod"].(map[string]any)
	assert.NotContains(t, mod, "alpha")
	assert.Contains(t, mod, "beta")
	assert.False(t, st.sawCommand("<show><alpha/></show>"))
}

func TestRunner_ModuleToggle(t *testing.T) {
	off := false
	st := newScriptedTransport()
	r := runnerFixture(t, st, func(cfg *config.Config) {
		cfg.Stats.Modules["testmod"] = config.ModuleConfig{Enabled: &off}
	})

	outcomes, err := r.Run(context.Background(), []Module{testModule()}, nil)
	require.NoError(t, err)

	out := outcomes["fw-a"]
	require.True(t, out.Success)
	assert.NotContains(t, out.Data, "testmod")
	assert.Empty(t, st.commands)
}

func TestRunner_RoutingModePicksCommandSet(t *testing.T) {
	t.Run("advanced probe success selects advanced commands", func(t *testing.T) {
		st := newScriptedTransport()
		r := runnerFixture(t, st, nil)

		outcomes, err := r.Run(context.Background(), []Module{RoutingModule()}, nil)
		require.NoError(t, err)
		require.True(t, outcomes["fw-a"].Success)

		assert.True(t, st.sawCommand("<show><advanced-routing><bgp><summary></summary></bgp></advanced-routing></show>"))
		assert.False(t, st.sawCommand("<show><routing><protocol><bgp><summary></summary></bgp></protocol></routing></show>"))
	})

	t.Run("probe rejection falls back to legacy commands", func(t *testing.T) {
		st := newScriptedTransport()
		st.failures[advancedProbeCommand] = errors.NewRemote(17, "unknown command")
		r := runnerFixture(t, st, nil)

		outcomes, err := r.Run(context.Background(), []Module{RoutingModule()}, nil)
		require.NoError(t, err)
		require.True(t, outcomes["fw-a"].Success)

		assert.True(t, st.sawCommand("<show><routing><protocol><bgp><summary></summary></bgp></protocol></routing></show>"))
	})

	t.Run("explicit routing_mode skips the probe", func(t *testing.T) {
		st := newScriptedTransport()
		r := runnerFixture(t, st, func(cfg *config.Config) {
			fw := cfg.Firewalls["fw-a"]
			fw.RoutingMode = RoutingModeLegacy
			cfg.Firewalls["fw-a"] = fw
		})

		_, err := r.Run(context.Background(), []Module{RoutingModule()}, nil)
		require.NoError(t, err)
		assert.False(t, st.sawCommand(advancedProbeCommand))
	})
}

func TestByName(t *testing.T) {
	modules, err := ByName("system", "routing")
	require.NoError(t, err)
	require.Len(t, modules, 2)
	assert.Equal(t, "system", modules[0].Name)

	_, err = ByName("bogus")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}
