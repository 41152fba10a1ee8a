package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

var sparklineBlockRunes = []rune(sparklineBlocks)

// RenderSparkline draws the most recent width samples as a block-chart
// string. Values are scaled to the sample range; when scale > 0 the
// samples are scaled against that fixed ceiling instead, which keeps
// traffic sparklines comparable across interfaces.
func RenderSparkline(data []float64, width int, scale float64) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}
	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if scale > 0 {
		minVal, maxVal = 0, scale
	}

	var sb strings.Builder
	sb.Grow(len(data) * 4)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		var level int
		if valueRange == 0 {
			level = numLevels / 2
		} else {
			normalized := (v - minVal) / valueRange
			level = int(normalized * float64(numLevels-1))
			if level < 0 {
				level = 0
			} else if level >= numLevels {
				level = numLevels - 1
			}
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	color := utilizationColor(data[len(data)-1], maxVal)
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// utilizationColor grades the latest sample against the chart ceiling:
// green below 60%, yellow to 80%, red above.
func utilizationColor(value, ceiling float64) lipgloss.Color {
	if ceiling <= 0 {
		return ColorSuccess
	}
	percent := value / ceiling * 100
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
