// Package fleet fans a single logical operation out across many
// firewalls with bounded concurrency, collecting exactly one Outcome per
// firewall. One firewall's failure never aborts, cancels, or delays the
// others.
package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/logger"
)

// Dispatcher coordinates parallel operation execution across a fleet.
type Dispatcher struct {
	log      logger.Logger
	resolver HostnameResolver
}

// NewDispatcher creates a dispatcher. resolver may be nil, in which case
// outcomes carry the config name as the hostname.
func NewDispatcher(resolver HostnameResolver, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Noop()
	}
	return &Dispatcher{log: log, resolver: resolver}
}

// Dispatch runs op against every named firewall and returns one Outcome
// per firewall, keyed by config name. It returns only after every
// firewall has a recorded outcome; there are no partial early returns.
//
// firewalls must already be filtered to enabled profiles; cfg.Only
// further restricts to a named subset. An empty effective set is a
// caller bug and returns a CONFIG error.
func (d *Dispatcher) Dispatch(ctx context.Context, firewalls []string, op Operation, cfg Config) (map[string]Outcome, error) {
	targets := filterTargets(firewalls, cfg.Only)
	if len(targets) == 0 {
		return nil, errors.New(errors.ErrConfig,
			"No firewalls to dispatch to",
			"Enable at least one firewall, or check the names passed to --firewall.")
	}

	workers := cfg.MaxConcurrency
	if workers < 1 {
		workers = DefaultMaxConcurrency
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	d.log.Debug("dispatching to %d firewall(s) with %d worker(s)", len(targets), workers)

	// Channel-based work queue: workers pull names as slots free up.
	queue := make(chan string, len(targets))
	for _, name := range targets {
		queue <- name
	}
	close(queue)

	results := make(chan Outcome, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range queue {
				results <- d.runOne(ctx, name, op)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make(map[string]Outcome, len(targets))
	for out := range results {
		outcomes[out.Firewall] = out
	}
	return outcomes, nil
}

// runOne executes the full per-firewall pipeline: operation (retry +
// transport + normalize inside), then hostname resolution. Panics are
// captured into the outcome so a bug in one collector cannot take down
// the rest of the fleet.
func (d *Dispatcher) runOne(ctx context.Context, name string, op Operation) (out Outcome) {
	start := time.Now()
	out = Outcome{Firewall: name, Hostname: name}

	defer func() {
		if r := recover(); r != nil {
			out.Success = false
			out.Data = nil
			out.Err = errors.New(errors.ErrRemote,
				fmt.Sprintf("panic while querying %s: %v", name, r), "")
		}
		out.Duration = time.Since(start)
		if d.resolver != nil {
			out.Hostname = d.resolver(ctx, name)
		}
	}()

	data, attempts, err := op(ctx, name)
	out.Attempts = attempts
	if err != nil {
		d.log.Error("query failed for %s after %d attempt(s): %s", name, attempts, errors.Code(err))
		out.Err = err
		return out
	}

	out.Success = true
	out.Data = data
	d.log.Debug("query succeeded for %s in %d attempt(s)", name, attempts)
	return out
}

// filterTargets applies the optional allow-list, preserving the order of
// the input fleet and dropping unknown names.
func filterTargets(firewalls, only []string) []string {
	if len(only) == 0 {
		return firewalls
	}
	allowed := make(map[string]bool, len(only))
	for _, name := range only {
		allowed[name] = true
	}
	targets := make([]string, 0, len(firewalls))
	for _, name := range firewalls {
		if allowed[name] {
			targets = append(targets, name)
		}
	}
	return targets
}
