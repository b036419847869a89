package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/latensee/internal/codec"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/probe"
	"github.com/rileyhilliard/latensee/internal/rpc"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// DefaultProbeTimeout bounds each probe check.
const DefaultProbeTimeout = 5 * time.Second

// DialCheck verifies the probe's websocket accepts a connection.
type DialCheck struct {
	URL     string
	Dialer  transport.Dialer // Nil means a websocket dialer
	Timeout time.Duration
}

func (c *DialCheck) Name() string     { return "probe_dial" }
func (c *DialCheck) Category() string { return "PROBE" }

func (c *DialCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.Timeout))
	defer cancel()

	start := time.Now()
	conn, err := dialerOr(c.Dialer).Dial(ctx, c.URL)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Can't reach the probe at %s: %s", c.URL, errors.Summary(err)),
			Suggestion: "Start the probe, or point --socket-url / socket_url at it",
		}
	}
	elapsed := time.Since(start)
	_ = conn.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Probe reachable at %s (%s)", c.URL, elapsed.Round(time.Millisecond)),
	}
}

func (c *DialCheck) Fix() error { return nil }

// RoundTripCheck links to the probe and asks whether it is measuring, which
// exercises the frame codec and call correlation end to end.
type RoundTripCheck struct {
	URL     string
	Dialer  transport.Dialer
	Timeout time.Duration
	Logger  logger.Logger
}

func (c *RoundTripCheck) Name() string     { return "probe_round_trip" }
func (c *RoundTripCheck) Category() string { return "PROBE" }

func (c *RoundTripCheck) Run(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, timeoutOr(c.Timeout))
	defer cancel()

	conn, err := dialerOr(c.Dialer).Dial(ctx, c.URL)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    "Round trip skipped, probe unreachable",
			Suggestion: "Fix the dial check first",
		}
	}
	defer conn.Close()

	log := c.Logger
	if log == nil {
		log = logger.NewEnvLogger("[doctor]")
	}

	linked := make(chan struct{})
	reg := rpc.NewRegistry(probe.LocalHandlers(discardLocal{}), rpc.Hooks{
		OnConnect: func() { close(linked) },
	}, log)

	linkCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- reg.Link(linkCtx, codec.New(linkCtx, conn)) }()

	linkReturned := false
	defer func() {
		stop()
		if !linkReturned {
			<-done
		}
	}()

	select {
	case <-linked:
	case err := <-done:
		linkReturned = true
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("Link closed before it was usable: %s", errors.Summary(err)),
		}
	}

	start := time.Now()
	measuring, err := probe.NewRemote(reg).IsMeasuring(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s failed: %s", probe.MethodIsMeasuring, errors.Summary(err)),
			Suggestion: "Check the probe speaks this dashboard's frame format",
		}
	}

	state := "idle"
	if measuring {
		state = "measuring"
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Round trip in %s, probe is %s", elapsed.Round(time.Microsecond), state),
	}
}

func (c *RoundTripCheck) Fix() error { return nil }

// NewProbeChecks returns the network checks for the probe at url.
func NewProbeChecks(url string, dialer transport.Dialer, timeout time.Duration) []Check {
	return []Check{
		&DialCheck{URL: url, Dialer: dialer, Timeout: timeout},
		&RoundTripCheck{URL: url, Dialer: dialer, Timeout: timeout},
	}
}

// discardLocal accepts samples the probe pushes while the check runs.
type discardLocal struct{}

func (discardLocal) DeliverSample(context.Context, string, float64) error { return nil }
func (discardLocal) ReportError(context.Context, string) error            { return nil }

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultProbeTimeout
	}
	return d
}

func dialerOr(d transport.Dialer) transport.Dialer {
	if d == nil {
		return transport.WebSocketDialer{}
	}
	return d
}
