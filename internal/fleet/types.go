package fleet

import (
	"context"
	"time"
)

// Outcome holds the per-firewall result of one dispatched operation.
// Exactly one of Data/Err is set once Success is resolved; an Outcome is
// immutable after the dispatcher returns it.
type Outcome struct {
	Firewall string         // config name of the firewall
	Hostname string         // self-reported hostname (cache-resolved)
	Success  bool           // true when Data is valid
	Data     map[string]any // canonical record, nil on failure
	Err      error          // classified failure, nil on success
	Attempts int            // transport attempts consumed
	Duration time.Duration  // wall-clock for this firewall's pipeline
}

// Operation runs one logical query against a single firewall and returns
// the canonical record plus the number of transport attempts it consumed.
// Implementations close over the retry engine and normalizer; the
// dispatcher treats them as opaque.
type Operation func(ctx context.Context, firewall string) (data map[string]any, attempts int, err error)

// HostnameResolver maps a firewall config name to its display hostname.
// Failures inside the resolver must degrade to the config name, never
// block the outcome.
type HostnameResolver func(ctx context.Context, firewall string) string

// Config holds dispatcher settings for one Dispatch call.
type Config struct {
	// MaxConcurrency bounds simultaneous per-firewall workers.
	// Values below 1 fall back to DefaultMaxConcurrency.
	MaxConcurrency int

	// Only restricts dispatch to the named firewalls when non-empty.
	Only []string
}

// DefaultMaxConcurrency is the worker bound used when none is configured.
const DefaultMaxConcurrency = 5
