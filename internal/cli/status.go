package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/session"
	"github.com/rileyhilliard/latensee/internal/ui"
)

// StatusOptions controls the status command.
type StatusOptions struct {
	Timeout    time.Duration
	JSON       bool
	ConfigPath string // File the config came from, empty for defaults
}

// StatusOutput represents the JSON output for status command.
type StatusOutput struct {
	SocketURL            string   `json:"socket_url"`
	Config               string   `json:"config,omitempty"`
	TargetURL            string   `json:"target_url"`
	IntervalMilliseconds int64    `json:"interval_ms"`
	Commands             []string `json:"commands"`
	Measuring            bool     `json:"measuring"`
	SyncErrors           []string `json:"sync_errors,omitempty"`
}

// Status links to the probe, pushes the configured settings, and reports
// what the probe is doing.
func Status(ctx context.Context, w io.Writer, cfg *config.Config, opts StatusOptions) error {
	start := time.Now()

	return withLinkedSession(ctx, cfg, opts.Timeout, func(ctx context.Context, s *session.Session, ready session.Event) error {
		elapsed := time.Since(start)
		desired := s.Desired()

		out := StatusOutput{
			SocketURL:            cfg.SocketURL,
			Config:               opts.ConfigPath,
			TargetURL:            desired.TargetURL,
			IntervalMilliseconds: desired.IntervalMilliseconds,
			Commands:             desired.Commands,
			Measuring:            ready.Measuring,
		}
		for _, err := range unjoin(ready.Err) {
			out.SyncErrors = append(out.SyncErrors, errors.Summary(err))
		}

		if opts.JSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		outputStatusText(w, out, elapsed)
		return nil
	})
}

func outputStatusText(w io.Writer, out StatusOutput, elapsed time.Duration) {
	pd := ui.NewPhaseDisplay(w)
	pd.RenderSuccess("Linked to "+out.SocketURL, elapsed)

	source := "built-in defaults"
	if out.Config != "" {
		source = out.Config
	}
	pd.RenderValue("config", source)
	pd.RenderValue("target", out.TargetURL)
	pd.RenderValue("interval", fmt.Sprintf("%dms", out.IntervalMilliseconds))
	pd.RenderValue("commands", strings.Join(out.Commands, ", "))

	measuring := ui.MutedStyle().Render("no")
	if out.Measuring {
		measuring = ui.SuccessStyle().Render("yes")
	}
	pd.RenderValue("measuring", measuring)

	for _, msg := range out.SyncErrors {
		fmt.Fprintln(w, ui.RenderAlert(session.AlertSync, msg))
	}
}
