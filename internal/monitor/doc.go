// Package monitor implements the live traffic viewer: a Bubble Tea
// dashboard that polls interface counters on one firewall and renders
// per-interface throughput with sparkline history.
//
// The dashboard polls on a fixed tick, derives byte rates from counter
// deltas, and keeps a ring buffer of recent rates per interface for the
// sparklines. Counter resets (reboots, clear commands) surface as a
// zero-rate sample rather than a negative spike.
package monitor
