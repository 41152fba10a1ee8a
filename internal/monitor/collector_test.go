package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterRecord(entries ...map[string]any) map[string]any {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return map[string]any{
		"result": map[string]any{
			"ifnet": map[string]any{
				"ifnet": map[string]any{"entry": list},
			},
		},
	}
}

func TestExtractSamples(t *testing.T) {
	samples := extractSamples(counterRecord(
		map[string]any{"name": "ethernet1/1", "ibytes": int64(1024), "obytes": int64(512)},
		map[string]any{"name": "tunnel.1", "ibytes": int64(0), "obytes": int64(0)},
		map[string]any{"ibytes": int64(9)}, // nameless entries are dropped
	))

	require.Len(t, samples, 2)
	assert.Equal(t, Sample{Name: "ethernet1/1", InBytes: 1024, OutBytes: 512}, samples[0])
}

func TestRatesSince_FirstPollIsBaseline(t *testing.T) {
	c := &Collector{}
	rates := c.ratesSince([]Sample{{Name: "eth", InBytes: 1000}}, time.Now())
	require.Len(t, rates, 1)
	assert.Zero(t, rates[0].RxBps)
}

func TestRatesSince_DerivesRates(t *testing.T) {
	now := time.Now()
	c := &Collector{
		prev:     map[string]Sample{"eth": {Name: "eth", InBytes: 1000, OutBytes: 500}},
		prevTime: now.Add(-10 * time.Second),
	}

	rates := c.ratesSince([]Sample{{Name: "eth", InBytes: 11000, OutBytes: 1500}}, now)
	require.Len(t, rates, 1)
	assert.InDelta(t, 1000.0, rates[0].RxBps, 0.01)
	assert.InDelta(t, 100.0, rates[0].TxBps, 0.01)
}

func TestRatesSince_CounterResetReadsZero(t *testing.T) {
	now := time.Now()
	c := &Collector{
		prev:     map[string]Sample{"eth": {Name: "eth", InBytes: 999999, OutBytes: 10}},
		prevTime: now.Add(-5 * time.Second),
	}

	rates := c.ratesSince([]Sample{{Name: "eth", InBytes: 100, OutBytes: 20}}, now)
	require.Len(t, rates, 1)
	assert.Zero(t, rates[0].RxBps, "a reset counter must not produce a negative rate")
	assert.InDelta(t, 2.0, rates[0].TxBps, 0.01)
}

func TestRatesSince_SortedByName(t *testing.T) {
	c := &Collector{}
	rates := c.ratesSince([]Sample{{Name: "b"}, {Name: "a"}}, time.Now())
	assert.Equal(t, "a", rates[0].Name)
	assert.Equal(t, "b", rates[1].Name)
}
