package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/doctor"
	"github.com/rileyhilliard/latensee/internal/ui"
)

var (
	doctorJSON    bool
	doctorFix     bool
	doctorTimeout time.Duration
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output in JSON format")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "attempt automatic fixes where possible")
	doctorCmd.Flags().DurationVar(&doctorTimeout, "timeout", doctor.DefaultProbeTimeout, "how long each probe check may take")
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	Fixable  int  `json:"fixable"`
	AllClear bool `json:"all_clear"`
}

// doctorCommand implements the doctor command logic.
func doctorCommand(ctx context.Context, w io.Writer) error {
	checks := collectChecks(Config(), probeURL(), doctorTimeout)

	results := doctor.RunAll(ctx, checks)

	if doctorFix {
		results = attemptFixes(ctx, checks, results)
	}

	if doctorJSON {
		if err := outputDoctorJSON(w, results); err != nil {
			return err
		}
	} else {
		outputDoctorText(w, results)
	}

	return exitOnFailure(doctor.HasFailures(results))
}

// probeURL is the socket URL doctor should check. A config that fails to
// load still gets checked against the default probe address; the config
// checks report the load error.
func probeURL() string {
	if socketURLFlag != "" {
		return socketURLFlag
	}
	cfg, _, err := config.LoadOrDefault(Config())
	if err != nil || cfg.SocketURL == "" {
		return config.DefaultConfig().SocketURL
	}
	return cfg.SocketURL
}

// collectChecks gathers the config checks followed by the probe checks.
func collectChecks(cfgPath, url string, timeout time.Duration) []doctor.Check {
	var checks []doctor.Check

	checks = append(checks,
		&doctor.ConfigFileCheck{ConfigPath: cfgPath},
		&doctor.ConfigSchemaCheck{ConfigPath: cfgPath},
	)
	checks = append(checks, doctor.NewProbeChecks(url, nil, timeout)...)

	return checks
}

// attemptFixes tries to fix issues where possible.
func attemptFixes(ctx context.Context, checks []doctor.Check, results []doctor.CheckResult) []doctor.CheckResult {
	for i, result := range results {
		if result.Fixable && (result.Status == doctor.StatusFail || result.Status == doctor.StatusWarn) {
			if err := checks[i].Fix(); err == nil {
				// Re-run the check to see if it's fixed
				results[i] = doctor.RunAll(ctx, checks[i:i+1])[0]
			}
		}
	}
	return results
}

// outputDoctorJSON outputs results in JSON format.
func outputDoctorJSON(w io.Writer, results []doctor.CheckResult) error {
	// Group by category
	grouped := make(map[string][]doctor.CheckResult)
	categoryOrder := []string{}

	for _, r := range results {
		if _, exists := grouped[r.Category]; !exists {
			categoryOrder = append(categoryOrder, r.Category)
		}
		grouped[r.Category] = append(grouped[r.Category], r)
	}

	output := DoctorOutput{
		Categories: make([]CategoryOutput, 0, len(categoryOrder)),
	}

	for _, cat := range categoryOrder {
		output.Categories = append(output.Categories, CategoryOutput{
			Name:    cat,
			Results: grouped[cat],
		})
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		Fixable:  doctor.FixableCount(results),
		AllClear: !doctor.HasIssues(results),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

// outputDoctorText outputs results in human-readable format.
func outputDoctorText(w io.Writer, results []doctor.CheckResult) {
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("LatenSee Diagnostic Report"))
	fmt.Fprintln(w)

	rows := make([]ui.DoctorCheckRow, 0, len(results))
	for _, r := range results {
		rows = append(rows, ui.DoctorCheckRow{
			Status:     r.Status.String(),
			Category:   r.Category,
			Message:    r.Message,
			Suggestion: r.Suggestion,
		})
	}
	fmt.Fprint(w, ui.RenderDoctorTable(rows))
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.FormatDivider(60))
	fmt.Fprintln(w)

	if !doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), doctor.Summary(results))

		if doctor.FixableCount(results) > 0 && !doctorFix {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "  Run with %s to attempt automatic fixes where possible.\n",
				ui.MutedStyle().Render("--fix"))
		}
	}

	fmt.Fprintln(w)
}
