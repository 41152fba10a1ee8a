package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_Empty(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10, 0))
	assert.Empty(t, RenderSparkline([]float64{1}, 0, 0))
}

func TestRenderSparkline_MapsRange(t *testing.T) {
	out := RenderSparkline([]float64{0, 50, 100}, 10, 0)
	assert.Contains(t, out, "▁")
	assert.Contains(t, out, "█")
}

func TestRenderSparkline_TruncatesToWidth(t *testing.T) {
	data := make([]float64, 20)
	for i := range data {
		data[i] = float64(i)
	}
	out := RenderSparkline(data, 5, 0)
	runes := 0
	for _, r := range out {
		if strings.ContainsRune(sparklineBlocks, r) {
			runes++
		}
	}
	assert.Equal(t, 5, runes)
}

func TestRenderSparkline_FixedScale(t *testing.T) {
	// Against a fixed ceiling of 100, all-low samples stay near the
	// bottom instead of filling the chart.
	out := RenderSparkline([]float64{1, 2, 3}, 10, 100)
	assert.NotContains(t, out, "█")
}

func TestUtilizationColor(t *testing.T) {
	assert.Equal(t, ColorSuccess, utilizationColor(10, 100))
	assert.Equal(t, ColorWarning, utilizationColor(65, 100))
	assert.Equal(t, ColorError, utilizationColor(90, 100))
	assert.Equal(t, ColorSuccess, utilizationColor(5, 0))
}
