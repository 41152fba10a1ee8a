// Package stats defines the read-only statistics modules and the runner
// that executes them across the fleet. Each module is a set of
// collections; a collection is one operational command plus the schema
// and shaping applied to its result.
package stats

import (
	"context"
	"time"

	"github.com/pastats/pastats/internal/errors"
	"github.com/pastats/pastats/internal/fleet"
	"github.com/pastats/pastats/internal/logger"
	"github.com/pastats/pastats/internal/panos"
)

// Collection is one operational command within a module.
type Collection struct {
	// Name keys the collection in the module result and in the config
	// toggles, e.g. "interface_counters".
	Name string

	// Command is the XML op command.
	Command string

	// Schema drives normalization of the response payload.
	Schema panos.Schema

	// Parse optionally reshapes the result subtree. It receives the
	// normalized <result> value, which for text-producing commands is a
	// string rather than a map. Nil means pass through unchanged.
	Parse func(result any) any
}

// Module groups related collections under one toggle name.
type Module struct {
	// Name keys the module in config and output, e.g. "system".
	Name string

	// Description is shown in CLI help and module listings.
	Description string

	// Collections run in order against each firewall.
	Collections []Collection

	// Prepare optionally customizes the collection set per firewall
	// before collection starts. The routing module uses this to pick
	// legacy or advanced command variants.
	Prepare func(ctx context.Context, r *Runner, firewall string) ([]Collection, error)
}

// Runner executes modules across the fleet through the client, honoring
// per-module and per-collection config toggles.
type Runner struct {
	client *panos.Client
	log    logger.Logger

	// now is swappable so tests get stable timestamps.
	now func() time.Time
}

// NewRunner wraps a client for stats collection.
func NewRunner(c *panos.Client, log logger.Logger) *Runner {
	if log == nil {
		log = logger.Noop()
	}
	return &Runner{client: c, log: log, now: time.Now}
}

// Client exposes the underlying client for modules that need ad-hoc
// queries during Prepare.
func (r *Runner) Client() *panos.Client { return r.client }

// Run collects the given modules from every targeted firewall. Each
// outcome's Data maps module name to that module's collection results.
// A failed collection degrades to an empty map and a warning; an
// authentication failure aborts the whole firewall, since every further
// command would fail the same way.
func (r *Runner) Run(ctx context.Context, modules []Module, only []string) (map[string]fleet.Outcome, error) {
	return r.client.Dispatch(ctx, only, func(ctx context.Context, firewall string) (map[string]any, int, error) {
		data := make(map[string]any, len(modules))
		attempts := 0

		for _, m := range modules {
			if !r.client.Config().ModuleEnabled(m.Name, firewall) {
				r.log.Debug("module %s disabled for firewall %s", m.Name, firewall)
				continue
			}
			result, a, err := r.collectModule(ctx, m, firewall)
			attempts += a
			if err != nil {
				return nil, attempts, err
			}
			data[m.Name] = result
		}

		return data, attempts, nil
	})
}

// collectModule runs one module's collections against one firewall.
func (r *Runner) collectModule(ctx context.Context, m Module, firewall string) (map[string]any, int, error) {
	collections := m.Collections
	attempts := 0

	if m.Prepare != nil {
		prepared, err := m.Prepare(ctx, r, firewall)
		if err != nil {
			if isAuthError(err) {
				return nil, attempts, err
			}
			r.log.Warn("module %s preparation failed for %s, using defaults: %v", m.Name, firewall, err)
		} else {
			collections = prepared
		}
	}

	result := make(map[string]any, len(collections)+1)
	for _, col := range collections {
		if !r.client.Config().CollectionEnabled(m.Name, col.Name, firewall) {
			r.log.Debug("collection %s.%s disabled for firewall %s", m.Name, col.Name, firewall)
			continue
		}

		value, a, err := r.collectOne(ctx, col, m.Name, firewall)
		attempts += a
		if err != nil {
			if isAuthError(err) {
				return nil, attempts, err
			}
			r.log.Warn("collection %s.%s failed for %s: %v", m.Name, col.Name, firewall, err)
			result[col.Name] = map[string]any{}
			continue
		}
		result[col.Name] = value
	}

	result["timestamp"] = r.now().UTC().Format(time.RFC3339)
	return result, attempts, nil
}

// isAuthError reports whether a collection failure means the key is bad
// for the whole firewall, not just this command.
func isAuthError(err error) bool {
	return errors.IsCode(err, errors.ErrUnauthorized)
}

// collectOne issues one command and shapes the result subtree.
func (r *Runner) collectOne(ctx context.Context, col Collection, module, firewall string) (any, int, error) {
	record, attempts, err := r.client.Query(ctx, firewall, panos.Operation{
		ID:      module + "." + col.Name,
		Command: col.Command,
		Schema:  col.Schema,
	})
	if err != nil {
		return nil, attempts, err
	}

	result, ok := record["result"]
	if !ok || result == nil {
		result = map[string]any{}
	}
	if col.Parse != nil {
		return col.Parse(result), attempts, nil
	}
	return result, attempts, nil
}
