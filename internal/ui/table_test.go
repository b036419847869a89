package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSampleTable(t *testing.T) {
	out := stripANSI(RenderSampleTable([]SampleRow{
		{Command: "get test", Values: []float64{100, 300, 200}},
		{Command: "set test 0", Values: []float64{1500}},
		{Command: "ping"},
	}))

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Contains(t, lines[0], "COMMAND")
	assert.Contains(t, lines[0], "TREND")

	var get, set, ping string
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "get test"):
			get = l
		case strings.HasPrefix(l, "set test 0"):
			set = l
		case strings.HasPrefix(l, "ping"):
			ping = l
		}
	}

	assert.Contains(t, get, "200µs", "last sample")
	assert.Contains(t, get, "100µs", "min")
	assert.Contains(t, get, "300µs", "max")
	assert.Contains(t, get, "▁█▄")
	assert.Contains(t, set, "1.50ms")
	assert.Contains(t, ping, "waiting")
}

func TestRenderSampleTable_Empty(t *testing.T) {
	assert.Contains(t, RenderSampleTable(nil), "No samples yet")
}

func TestFormatMicroseconds(t *testing.T) {
	assert.Equal(t, "0µs", FormatMicroseconds(0))
	assert.Equal(t, "999µs", FormatMicroseconds(999))
	assert.Equal(t, "1.00ms", FormatMicroseconds(1000))
	assert.Equal(t, "12.35ms", FormatMicroseconds(12345))
	assert.Equal(t, "2.50s", FormatMicroseconds(2_500_000))
}

func TestRenderDoctorTable(t *testing.T) {
	out := stripANSI(RenderDoctorTable([]DoctorCheckRow{
		{Status: "pass", Category: "CONFIG", Message: "Config file: .latensee.yaml"},
		{Status: "fail", Category: "PROBE", Message: "Can't reach probe", Suggestion: "Start the probe"},
		{Status: "warn", Category: "CONFIG", Message: "Using defaults", Suggestion: "Run latensee init"},
		{Status: "pass", Category: "PROBE", Message: "Round trip", Suggestion: "hidden on pass"},
	}))

	assert.Less(t, strings.Index(out, "CONFIG"), strings.Index(out, "PROBE"), "categories keep first-seen order")
	assert.Contains(t, out, SymbolSuccess+" Config file: .latensee.yaml")
	assert.Contains(t, out, SymbolFail+" Can't reach probe")
	assert.Contains(t, out, SymbolWarning+" Using defaults")
	assert.Contains(t, out, "Start the probe")
	assert.NotContains(t, out, "hidden on pass")

	// Both CONFIG rows are grouped under one header
	assert.Equal(t, 1, strings.Count(out, "CONFIG"))
}

func TestRenderDoctorTable_Empty(t *testing.T) {
	assert.Equal(t, "No checks to display", RenderDoctorTable(nil))
}

func TestRenderHeader(t *testing.T) {
	out := stripANSI(RenderHeader(HeaderInfo{
		Version: "v1.2.3",
		Probe:   "ws://localhost:1337",
		Target:  "redis://localhost:6379/0",
	}))

	assert.Contains(t, out, "latensee v1.2.3")
	assert.Contains(t, out, "ws://localhost:1337")
	assert.Contains(t, out, "redis://localhost:6379/0")
	assert.Contains(t, out, strings.Repeat("━", HeaderWidth))
}
