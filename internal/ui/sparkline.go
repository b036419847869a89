package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Sparkline block characters representing 8 vertical levels (lowest to highest).
const sparklineBlocks = "▁▂▃▄▅▆▇█"

// sparklineBlockRunes provides indexed access to block characters.
var sparklineBlockRunes = []rune(sparklineBlocks)

// Latency thresholds in microseconds for coloring.
const (
	LatencyWarnMicroseconds  = 1000
	LatencyErrorMicroseconds = 10000
)

// RenderSparkline draws the most recent width latency samples (microseconds).
// Values are mapped to 8 vertical levels based on the min/max range of the
// visible window. The color follows the last sample, see LatencyColor.
func RenderSparkline(data []float64, width int) string {
	if len(data) == 0 || width <= 0 {
		return ""
	}

	if len(data) > width {
		data = data[len(data)-width:]
	}

	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)

	numLevels := len(sparklineBlockRunes)
	valueRange := maxVal - minVal

	for _, v := range data {
		level := numLevels / 2
		if valueRange > 0 {
			normalized := (v - minVal) / valueRange
			level = min(max(int(normalized*float64(numLevels-1)), 0), numLevels-1)
		}
		sb.WriteRune(sparklineBlockRunes[level])
	}

	return lipgloss.NewStyle().Foreground(LatencyColor(data[len(data)-1])).Render(sb.String())
}

// LatencyColor picks green under 1ms, amber under 10ms and red above.
func LatencyColor(microseconds float64) lipgloss.Color {
	switch {
	case microseconds >= LatencyErrorMicroseconds:
		return ColorError
	case microseconds >= LatencyWarnMicroseconds:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
