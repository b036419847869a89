package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/session"
	"github.com/rileyhilliard/latensee/internal/telemetry"
	"github.com/rileyhilliard/latensee/internal/ui"
)

// WatchOptions controls the watch command.
type WatchOptions struct {
	Start        bool          // Start measuring on the first link
	Fresh        bool          // With Start, clear the buffer first
	ExportPath   string        // CSV written on exit, empty to skip
	SummaryEvery time.Duration // Summary period, 0 prints only on exit
	For          time.Duration // Stop after this long, 0 runs until interrupted
	Quiet        bool          // Hide per-retry reasons
}

// syncWriter serializes writes from session callbacks and the summary loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Watch runs a session until ctx is done (or opts.For elapses), printing
// connection changes, alerts and periodic latency summaries.
func Watch(ctx context.Context, w io.Writer, cfg *config.Config, opts WatchOptions) error {
	s, err := session.New(cfg.SessionOptions())
	if err != nil {
		return err
	}

	if opts.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.For)
		defer cancel()
	}

	out := &syncWriter{w: w}
	fmt.Fprint(out, ui.RenderHeader(ui.HeaderInfo{
		Version: formatVersion(version),
		Probe:   cfg.SocketURL,
		Target:  cfg.Probe.TargetURL,
	}))

	display := ui.NewConnectionDisplay(out, cfg.SocketURL)
	display.SetQuiet(opts.Quiet)

	ready := make(chan session.Event, 1)
	unsubscribe := s.Subscribe(func(e session.Event) {
		switch e.Kind {
		case session.EventState:
			display.Update(e.State, e.Err)
		case session.EventAlert:
			fmt.Fprintln(out, ui.RenderAlert(e.Alert.Source, e.Alert.Message))
		case session.EventMeasuring:
			fmt.Fprintln(out, renderMeasuring(e.Measuring))
		case session.EventReady:
			select {
			case ready <- e:
			default:
			}
		}
	})
	defer unsubscribe()

	runCtx, cancelRun := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()

	var tick <-chan time.Time
	if opts.SummaryEvery > 0 {
		ticker := time.NewTicker(opts.SummaryEvery)
		defer ticker.Stop()
		tick = ticker.C
	}

	started := !opts.Start
	var lastOffset uint64
	for running := true; running; {
		select {
		case e := <-ready:
			if started {
				continue
			}
			if e.Measuring && !opts.Fresh {
				started = true
				continue
			}
			start := s.Start
			if opts.Fresh {
				start = s.StartFresh
			}
			// A rejected start is alerted by the session. A lost link
			// retries on the next one.
			err := start(ctx)
			started = err == nil || errors.IsCode(err, errors.ErrRemote)

		case <-tick:
			snap := s.Snapshot()
			if snap.Len() == 0 || snap.Offset == lastOffset {
				continue
			}
			lastOffset = snap.Offset
			fmt.Fprint(out, renderSummary(snap))

		case <-ctx.Done():
			running = false
		}
	}

	cancelRun()
	runErr := <-done

	fmt.Fprintln(out)
	fmt.Fprint(out, renderSummary(s.Snapshot()))

	if opts.ExportPath != "" {
		if err := exportCSV(out, s, opts.ExportPath); err != nil {
			return err
		}
	}
	return runErr
}

// renderSummary renders the latency table for every command seen so far.
func renderSummary(snap telemetry.Snapshot) string {
	rows := make([]ui.SampleRow, 0, len(snap.Keys))
	for _, key := range snap.Keys {
		values := snap.Series[key]
		if len(values) > ui.SparklineWidth {
			values = values[len(values)-ui.SparklineWidth:]
		}
		rows = append(rows, ui.SampleRow{Command: key, Values: values})
	}
	return ui.RenderSampleTable(rows)
}

func renderMeasuring(on bool) string {
	if on {
		return ui.FormatPhase(ui.SymbolComplete, ui.ColorSuccess, "Probe is measuring", "")
	}
	return ui.FormatPhase(ui.SymbolPending, ui.ColorMuted, "Probe is idle", "")
}

// exportCSV writes the session's samples to path.
func exportCSV(w io.Writer, s *session.Session, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			fmt.Sprintf("Couldn't create %s", path),
			"Check the directory exists and is writable")
	}

	if err := s.ExportCSV(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.WrapWithCode(err, errors.ErrExport,
			fmt.Sprintf("Couldn't write %s", path), "")
	}

	fmt.Fprintf(w, "%s Exported %d samples to %s\n",
		ui.SuccessStyle().Render(ui.SymbolSuccess), len(s.Rows()), path)
	return nil
}
