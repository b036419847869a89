package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/session"
	"github.com/rileyhilliard/latensee/internal/ui"
)

// SetMeasuring links to the probe and starts or stops measurement.
func SetMeasuring(ctx context.Context, w io.Writer, cfg *config.Config, on bool, timeout time.Duration) error {
	pd := ui.NewPhaseDisplay(w)
	start := time.Now()

	return withLinkedSession(ctx, cfg, timeout, func(ctx context.Context, s *session.Session, ready session.Event) error {
		pd.RenderSuccess("Linked to "+cfg.SocketURL, time.Since(start))
		renderSyncResult(w, ready.Err)

		if ready.Measuring == on {
			pd.RenderValue("measuring", yesNo(on))
			fmt.Fprintln(w, ui.MutedStyle().Render("  Nothing to do, probe is already "+measuringWord(on)))
			return nil
		}

		name, call := "Stop", s.Stop
		if on {
			name, call = "Start", s.Start
		}

		callStart := time.Now()
		if err := call(ctx); err != nil {
			pd.RenderFailed(name+" failed", time.Since(callStart), err)
			return errors.NewExitError(1)
		}
		pd.RenderSuccess("Probe is "+measuringWord(on), time.Since(callStart))
		return nil
	})
}

// renderSyncResult reports settings the probe refused during the link.
func renderSyncResult(w io.Writer, err error) {
	for _, e := range unjoin(err) {
		fmt.Fprintln(w, ui.RenderAlert(session.AlertSync, errors.Summary(e)))
	}
}

// unjoin flattens nested errors.Join results back into their parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []error{err}
	}
	var parts []error
	for _, e := range joined.Unwrap() {
		parts = append(parts, unjoin(e)...)
	}
	return parts
}

func measuringWord(on bool) string {
	if on {
		return "measuring"
	}
	return "idle"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
