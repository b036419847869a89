package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// SampleRow is one command's visible latency window, oldest first, in microseconds.
type SampleRow struct {
	Command string
	Values  []float64
}

// SparklineWidth is how many samples the TREND column shows.
const SparklineWidth = 30

// RenderSampleTable renders per-command latency stats for the watch summary.
func RenderSampleTable(rows []SampleRow) string {
	if len(rows) == 0 {
		return MutedStyle().Render("No samples yet") + "\n"
	}

	cmdWidth := len("COMMAND")
	for _, r := range rows {
		cmdWidth = max(cmdWidth, lipgloss.Width(r.Command))
	}
	cmdWidth += 2

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var b strings.Builder
	b.WriteString(headerStyle.Render(
		padRight("COMMAND", cmdWidth)+
			padRight("N", 5)+
			padRight("LAST", 11)+
			padRight("MIN", 11)+
			padRight("AVG", 11)+
			padRight("MAX", 11)+
			"TREND") + "\n")

	for _, r := range rows {
		if len(r.Values) == 0 {
			b.WriteString(padRight(r.Command, cmdWidth) + MutedStyle().Render("waiting") + "\n")
			continue
		}

		last := r.Values[len(r.Values)-1]
		lo, hi, sum := r.Values[0], r.Values[0], 0.0
		for _, v := range r.Values {
			lo = min(lo, v)
			hi = max(hi, v)
			sum += v
		}
		avg := sum / float64(len(r.Values))

		lastStyle := lipgloss.NewStyle().Foreground(LatencyColor(last))
		b.WriteString(padRight(r.Command, cmdWidth) +
			padRight(fmt.Sprintf("%d", len(r.Values)), 5) +
			padRight(lastStyle.Render(FormatMicroseconds(last)), 11) +
			padRight(FormatMicroseconds(lo), 11) +
			padRight(FormatMicroseconds(avg), 11) +
			padRight(FormatMicroseconds(hi), 11) +
			RenderSparkline(r.Values, SparklineWidth) + "\n")
	}

	return b.String()
}

// FormatMicroseconds renders a latency with a unit that keeps it short.
func FormatMicroseconds(us float64) string {
	switch {
	case us >= 1_000_000:
		return fmt.Sprintf("%.2fs", us/1_000_000)
	case us >= 1000:
		return fmt.Sprintf("%.2fms", us/1000)
	default:
		return fmt.Sprintf("%.0fµs", us)
	}
}

// DoctorCheckRow represents a row in the doctor diagnostic table.
type DoctorCheckRow struct {
	Status     string // "pass", "warn", "fail"
	Category   string // Check category
	Message    string // Check result message
	Suggestion string // Suggestion for fixing (if failed)
}

// RenderDoctorTable renders doctor check results grouped by category.
func RenderDoctorTable(rows []DoctorCheckRow) string {
	if len(rows) == 0 {
		return "No checks to display"
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	var output strings.Builder

	// Group by category, keeping first-seen order
	categories := make(map[string][]DoctorCheckRow)
	categoryOrder := []string{}
	for _, row := range rows {
		if _, exists := categories[row.Category]; !exists {
			categoryOrder = append(categoryOrder, row.Category)
		}
		categories[row.Category] = append(categories[row.Category], row)
	}

	for _, cat := range categoryOrder {
		output.WriteString(headerStyle.Render(cat) + "\n")

		for _, row := range categories[cat] {
			var statusIcon string
			switch row.Status {
			case "pass":
				statusIcon = SuccessStyle().Render(SymbolSuccess)
			case "warn":
				statusIcon = WarningStyle().Render(SymbolWarning)
			case "fail":
				statusIcon = ErrorStyle().Render(SymbolFail)
			default:
				statusIcon = MutedStyle().Render(SymbolPending)
			}

			output.WriteString("  " + statusIcon + " " + row.Message + "\n")

			if row.Suggestion != "" && row.Status != "pass" {
				output.WriteString("    " + MutedStyle().Render(row.Suggestion) + "\n")
			}
		}
		output.WriteString("\n")
	}

	return output.String()
}

// padRight pads a string to the specified visible width.
func padRight(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
