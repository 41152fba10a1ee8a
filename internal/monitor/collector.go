package monitor

import (
	"context"
	"sort"
	"time"

	"github.com/pastats/pastats/internal/panos"
)

// Sample is one interface's raw counters at a point in time.
type Sample struct {
	Name     string
	InBytes  int64
	OutBytes int64
}

// Rate is the derived throughput for one interface over a poll
// interval.
type Rate struct {
	Name  string
	RxBps float64
	TxBps float64
}

// counterOperation fetches raw interface counters. The response nests a
// second ifnet element inside the first.
var counterOperation = panos.Operation{
	ID:      "monitor.interface-counters",
	Command: "<show><counter><interface>all</interface></counter></show>",
	Schema: panos.Schema{
		Repeatable: []string{"result.ifnet.ifnet.entry"},
		Counters: []string{
			"result.ifnet.ifnet.entry.ibytes",
			"result.ifnet.ifnet.entry.obytes",
		},
	},
}

// Collector polls one firewall's counters and converts deltas to rates.
type Collector struct {
	client   *panos.Client
	firewall string

	prev     map[string]Sample
	prevTime time.Time
}

// NewCollector creates a collector bound to one firewall profile.
func NewCollector(client *panos.Client, firewall string) *Collector {
	return &Collector{client: client, firewall: firewall}
}

// Poll fetches counters and returns per-interface rates. The first poll
// establishes the baseline and returns zero rates.
func (c *Collector) Poll(ctx context.Context) ([]Rate, error) {
	record, _, err := c.client.Query(ctx, c.firewall, counterOperation)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	samples := extractSamples(record)
	rates := c.ratesSince(samples, now)

	c.prev = make(map[string]Sample, len(samples))
	for _, s := range samples {
		c.prev[s.Name] = s
	}
	c.prevTime = now

	return rates, nil
}

// ratesSince derives rates from the previous baseline. Counter
// regressions (resets) produce a zero rate for that direction.
func (c *Collector) ratesSince(samples []Sample, now time.Time) []Rate {
	elapsed := now.Sub(c.prevTime).Seconds()

	rates := make([]Rate, 0, len(samples))
	for _, s := range samples {
		r := Rate{Name: s.Name}
		if prev, ok := c.prev[s.Name]; ok && elapsed > 0 {
			if delta := s.InBytes - prev.InBytes; delta > 0 {
				r.RxBps = float64(delta) / elapsed
			}
			if delta := s.OutBytes - prev.OutBytes; delta > 0 {
				r.TxBps = float64(delta) / elapsed
			}
		}
		rates = append(rates, r)
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Name < rates[j].Name })
	return rates
}

// extractSamples digs the normalized counter entries out of a record.
func extractSamples(record map[string]any) []Sample {
	result, _ := record["result"].(map[string]any)
	outer, _ := result["ifnet"].(map[string]any)
	inner, ok := outer["ifnet"].(map[string]any)
	if !ok {
		inner = outer
	}
	entries, _ := inner["entry"].([]any)

	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		entry, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		if name == "" {
			continue
		}
		samples = append(samples, Sample{
			Name:     name,
			InBytes:  toInt64(entry["ibytes"]),
			OutBytes: toInt64(entry["obytes"]),
		})
	}
	return samples
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
