package panos

import (
	"context"
	"fmt"

	"github.com/pastats/pastats/internal/config"
	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
	"github.com/pastats/pastats/internal/hostcache"
	"github.com/pastats/pastats/internal/logger"
)

// Operation pairs an operational command with the normalization schema
// for its payload.
type Operation struct {
	// ID names the logical operation, e.g. "system-info".
	ID string

	// Command is the XML op command sent to every targeted firewall.
	Command string

	// Schema drives canonicalization of the response.
	Schema Schema
}

// Client is the public entry point composing transport, credentials,
// retry, normalization, hostname caching, and fleet dispatch.
type Client struct {
	cfg        *config.Config
	creds      *CredentialStore
	transport  Transport
	cache      *hostcache.Cache
	dispatcher *fleet.Dispatcher
	log        logger.Logger
}

// Option overrides a Client collaborator, mainly for tests.
type Option func(*Client)

// WithTransport substitutes the transport implementation.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHostnameCache substitutes the hostname cache.
func WithHostnameCache(hc *hostcache.Cache) Option {
	return func(c *Client) { c.cache = hc }
}

// NewClient builds a client from loaded config. It fails fast on
// credential gaps and on a fleet with zero enabled firewalls.
func NewClient(cfg *config.Config, log logger.Logger, opts ...Option) (*Client, error) {
	if log == nil {
		log = logger.Noop()
	}

	if len(cfg.EnabledFirewalls()) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No enabled firewalls configured",
			"Enable at least one firewall in "+config.ConfigFileName+".")
	}

	creds, err := NewCredentialStore(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       cfg,
		creds:     creds,
		transport: NewHTTPTransport(log),
		log:       log,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil && cfg.HostnameCache.Enabled {
		c.cache = hostcache.New(cfg.HostnameCache.File, cfg.HostnameCache.TTL, log)
	}

	c.dispatcher = fleet.NewDispatcher(c.resolveHostname, log)
	return c, nil
}

// Config exposes the loaded configuration to collectors.
func (c *Client) Config() *config.Config { return c.cfg }

// HostnameCache exposes the cache for the hostnames command; nil when
// caching is disabled.
func (c *Client) HostnameCache() *hostcache.Cache { return c.cache }

// Query runs the full single-firewall pipeline: retry-wrapped transport,
// then normalization. It returns the canonical record, the transport
// attempts consumed, and the classified error if the pipeline failed.
func (c *Client) Query(ctx context.Context, firewall string, op Operation) (map[string]any, int, error) {
	fw, ok := c.cfg.Firewalls[firewall]
	if !ok {
		return nil, 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown firewall %q", firewall),
			"Check the name against the firewalls section of the config.")
	}

	cred, err := c.creds.Get(firewall)
	if err != nil {
		return nil, 0, err
	}

	retryer := NewRetryer(c.cfg.Query.MaxAttempts, c.cfg.Query.RetryDelay, c.log)
	payload, attempts, err := retryer.Do(ctx, func(ctx context.Context) (map[string]any, error) {
		return c.transport.Execute(ctx, fw, cred, OpRequest{Command: op.Command})
	})
	if err != nil {
		return nil, attempts, err
	}

	record, err := Normalize(payload, op.Schema)
	if err != nil {
		return nil, attempts, err
	}
	return record, attempts, nil
}

// RunOn executes one operation against a single firewall.
func (c *Client) RunOn(ctx context.Context, firewall string, op Operation) fleet.Outcome {
	outcomes, err := c.Dispatch(ctx, []string{firewall}, c.queryOperation(op))
	if err != nil {
		return fleet.Outcome{Firewall: firewall, Hostname: firewall, Err: err}
	}
	return outcomes[firewall]
}

// RunOnAll executes one operation against every enabled firewall.
func (c *Client) RunOnAll(ctx context.Context, op Operation) (map[string]fleet.Outcome, error) {
	return c.Dispatch(ctx, nil, c.queryOperation(op))
}

// RunOnNamed executes one operation against a named subset of the fleet.
func (c *Client) RunOnNamed(ctx context.Context, firewalls []string, op Operation) (map[string]fleet.Outcome, error) {
	return c.Dispatch(ctx, firewalls, c.queryOperation(op))
}

// Dispatch fans an arbitrary per-firewall operation across the enabled
// fleet (optionally restricted to only). Collectors use this to run
// multi-command pipelines under the same concurrency and isolation
// rules as single operations.
func (c *Client) Dispatch(ctx context.Context, only []string, op fleet.Operation) (map[string]fleet.Outcome, error) {
	enabled := c.enabledNames()
	if len(enabled) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No enabled firewalls configured",
			"Enable at least one firewall in "+config.ConfigFileName+".")
	}

	return c.dispatcher.Dispatch(ctx, enabled, op, fleet.Config{
		MaxConcurrency: c.cfg.Query.MaxConcurrency,
		Only:           only,
	})
}

// ValidateConfig authenticates against every enabled firewall without
// running a data-bearing operation. The result maps firewall name to
// auth success.
func (c *Client) ValidateConfig(ctx context.Context) (map[string]bool, error) {
	outcomes, err := c.Dispatch(ctx, nil, func(ctx context.Context, name string) (map[string]any, int, error) {
		fw := c.cfg.Firewalls[name]
		if err := c.creds.Verify(ctx, c.transport, fw, name); err != nil {
			return nil, 1, err
		}
		return map[string]any{}, 1, nil
	})
	if err != nil {
		return nil, err
	}

	valid := make(map[string]bool, len(outcomes))
	for name, out := range outcomes {
		valid[name] = out.Success
	}
	return valid, nil
}

// queryOperation adapts an Operation into the dispatcher's closure shape.
func (c *Client) queryOperation(op Operation) fleet.Operation {
	return func(ctx context.Context, name string) (map[string]any, int, error) {
		return c.Query(ctx, name, op)
	}
}

// enabledNames returns the enabled fleet in deterministic order.
func (c *Client) enabledNames() []string {
	var names []string
	for _, name := range c.cfg.FirewallNames() {
		if c.cfg.Firewalls[name].IsEnabled() {
			names = append(names, name)
		}
	}
	return names
}

// hostnameOperation fetches the self-reported hostname from system info.
var hostnameOperation = Operation{
	ID:      "hostname",
	Command: authProbeCommand,
}

// resolveHostname is the dispatcher's HostnameResolver: cached when the
// cache is enabled, falling back to the config name when resolution
// fails or caching is off.
func (c *Client) resolveHostname(ctx context.Context, firewall string) string {
	if c.cache == nil {
		return firewall
	}

	hostname, err := c.cache.Resolve(ctx, firewall, func(ctx context.Context) (string, error) {
		return c.fetchHostname(ctx, firewall)
	})
	if err != nil || hostname == "" {
		c.log.Debug("hostname resolution failed for %s, using config name: %v", firewall, err)
		return firewall
	}
	return hostname
}

// fetchHostname performs the live hostname lookup.
func (c *Client) fetchHostname(ctx context.Context, firewall string) (string, error) {
	record, _, err := c.Query(ctx, firewall, hostnameOperation)
	if err != nil {
		return "", err
	}

	if result, ok := record["result"].(map[string]any); ok {
		if system, ok := result["system"].(map[string]any); ok {
			if hostname, ok := system["hostname"].(string); ok && hostname != "" {
				return hostname, nil
			}
		}
	}
	return "", errors.New(errors.ErrMalformed,
		fmt.Sprintf("System info from %s has no hostname", firewall), "")
}
