package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/rpc"
)

// ConnectionDisplay renders the reconnect controller's state stream.
// Retries are collapsed: the first failure prints a line, later failures
// only print when the reason changes, and the next link reports how many
// attempts it took.
//
// Example output:
//
//	◆ Connecting to ws://localhost:1337...
//	● Linked to ws://localhost:1337 12ms
//	✕ Disconnected: Connection to the probe was lost: EOF
//	  ◇ Can't open websocket to ws://localhost:1337: connection refused
//	● Linked to ws://localhost:1337 after 14 attempts 1.6s
type ConnectionDisplay struct {
	mu       sync.Mutex
	w        io.Writer
	url      string
	quiet    bool
	last     rpc.State
	failures int
	lastErr  string
	since    time.Time
}

// NewConnectionDisplay creates a connection display for url writing to w.
func NewConnectionDisplay(w io.Writer, url string) *ConnectionDisplay {
	return &ConnectionDisplay{w: w, url: url, last: rpc.Idle}
}

// SetQuiet suppresses the per-retry reason lines.
func (cd *ConnectionDisplay) SetQuiet(quiet bool) {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	cd.quiet = quiet
}

// Update renders a state transition. err is the reason carried by Degraded.
func (cd *ConnectionDisplay) Update(state rpc.State, err error) {
	cd.mu.Lock()
	defer cd.mu.Unlock()

	prev := cd.last
	cd.last = state

	switch state {
	case rpc.Connecting:
		if cd.failures == 0 && prev != rpc.Connecting {
			cd.since = time.Now()
			fmt.Fprintln(cd.w, RenderStateLine(state, cd.url, nil))
		}

	case rpc.Linked:
		msg := "Linked to " + cd.url
		if cd.failures > 0 {
			msg = fmt.Sprintf("%s after %d attempts", msg, cd.failures+1)
		}
		fmt.Fprintln(cd.w, FormatPhase(SymbolComplete, ColorSuccess, msg, formatDuration(time.Since(cd.since))))
		cd.failures = 0
		cd.lastErr = ""

	case rpc.Degraded:
		reason := errors.Summary(err)
		cd.failures++
		if cd.failures == 1 {
			if prev == rpc.Linked || prev == rpc.Open {
				cd.since = time.Now()
			}
			fmt.Fprintln(cd.w, RenderStateLine(state, cd.url, err))
		} else if !cd.quiet && reason != cd.lastErr {
			fmt.Fprintf(cd.w, "  %s %s\n", MutedStyle().Render(SymbolPending), MutedStyle().Render(reason))
		}
		cd.lastErr = reason

	case rpc.Closed:
		fmt.Fprintln(cd.w, RenderStateLine(state, cd.url, nil))
	}
}

// Failures returns the failed attempts since the last link.
func (cd *ConnectionDisplay) Failures() int {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.failures
}

// RenderStateLine returns the one-line rendering of a state.
func RenderStateLine(state rpc.State, url string, err error) string {
	var symbol, msg string
	var color lipgloss.Color

	switch state {
	case rpc.Connecting:
		symbol, color, msg = SymbolProgress, ColorSecondary, "Connecting to "+url+"..."
	case rpc.Open:
		symbol, color, msg = SymbolProgress, ColorSecondary, "Connected to "+url+", linking"
	case rpc.Linked:
		symbol, color, msg = SymbolComplete, ColorSuccess, "Linked to "+url
	case rpc.Degraded:
		symbol, color, msg = SymbolFail, ColorError, "Disconnected"
		if err != nil {
			msg += ": " + errors.Summary(err)
		}
	case rpc.Closed:
		symbol, color, msg = SymbolPending, ColorMuted, "Closed"
	default:
		symbol, color, msg = SymbolPending, ColorMuted, state.String()
	}

	return FormatPhase(symbol, color, msg, "")
}

// RenderAlert returns the one-line rendering of an operator alert.
func RenderAlert(source, message string) string {
	return fmt.Sprintf("%s %s %s",
		WarningStyle().Render(SymbolWarning),
		MutedStyle().Render("["+source+"]"),
		message,
	)
}
