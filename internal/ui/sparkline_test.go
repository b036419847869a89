package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_Empty(t *testing.T) {
	assert.Empty(t, RenderSparkline(nil, 10), "nil data should return empty string")
	assert.Empty(t, RenderSparkline([]float64{}, 10), "empty data should return empty string")
	assert.Empty(t, RenderSparkline([]float64{50, 60}, 0), "zero width should return empty string")
	assert.Empty(t, RenderSparkline([]float64{50, 60}, -5), "negative width should return empty string")
}

func TestRenderSparkline_Levels(t *testing.T) {
	tests := []struct {
		name  string
		data  []float64
		width int
		want  string
	}{
		{"single value uses middle level", []float64{120}, 10, "▅"},
		{"flat line uses middle level", []float64{80, 80, 80}, 10, "▅▅▅"},
		{"increasing", []float64{0, 50, 100}, 10, "▁▄█"},
		{"decreasing", []float64{100, 50, 0}, 10, "█▄▁"},
		{"keeps most recent", []float64{900, 1, 2, 3}, 3, "▁▄█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripANSI(RenderSparkline(tt.data, tt.width)))
		})
	}
}

func TestLatencyColor(t *testing.T) {
	tests := []struct {
		us   float64
		want lipgloss.Color
	}{
		{0, ColorSuccess},
		{999, ColorSuccess},
		{1000, ColorWarning},
		{9999, ColorWarning},
		{10000, ColorError},
		{250000, ColorError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LatencyColor(tt.us), "latency %v", tt.us)
	}
}
