package session

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/latensee/internal/codec"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/rpc"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// DefaultReconnectDelay is the pause between a failed attempt and the next.
const DefaultReconnectDelay = 100 * time.Millisecond

// ControllerOptions configure a Controller.
type ControllerOptions struct {
	URL    string
	Dialer transport.Dialer

	// ReconnectDelay is the fixed wait before each retry. Zero means
	// DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// OnState observes every transition. err is set for Degraded.
	OnState func(state rpc.State, err error)

	// OnLinked runs on the controller goroutine right after each Linked
	// transition, with the context of the current attempt. Calls made from
	// it are served normally.
	OnLinked func(ctx context.Context)

	Logger logger.Logger
}

// Controller keeps a Registry linked to the probe, redialing after every
// failure with a fixed delay and no retry limit. Attempts never overlap:
// Run is a single sequential loop.
type Controller struct {
	reg  *rpc.Registry
	opts ControllerOptions
	log  logger.Logger

	running  atomic.Bool
	attempts atomic.Int64

	mu    sync.Mutex
	state rpc.State

	// attemptCtx is only touched from the Run goroutine.
	attemptCtx context.Context
}

// NewController creates a controller for reg. The registry's OnConnect hook
// must call the controller's Linked method.
func NewController(reg *rpc.Registry, opts ControllerOptions) *Controller {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Dialer == nil {
		opts.Dialer = transport.WebSocketDialer{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewEnvLogger("[session]")
	}
	return &Controller{
		reg:   reg,
		opts:  opts,
		log:   log,
		state: rpc.Idle,
	}
}

// State returns the current connection state.
func (c *Controller) State() rpc.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Attempts returns how many dials have been started.
func (c *Controller) Attempts() int {
	return int(c.attempts.Load())
}

// Run connects and reconnects until ctx is done, then returns nil after
// moving to Closed. Only one Run may be active.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New(errors.ErrTransport, "Controller is already running", "")
	}
	defer c.running.Store(false)

	for {
		err := c.attempt(ctx)
		if ctx.Err() != nil {
			c.setState(rpc.Closed, nil)
			return nil
		}

		c.setState(rpc.Degraded, err)
		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.setState(rpc.Closed, nil)
			return nil
		case <-timer.C:
		}
	}
}

// attempt dials once and serves the link until it ends. It always returns
// the reason the attempt is over.
func (c *Controller) attempt(ctx context.Context) error {
	c.attempts.Add(1)
	c.setState(rpc.Connecting, nil)

	conn, err := c.opts.Dialer.Dial(ctx, c.opts.URL)
	if err != nil {
		c.log.Debug("dial %s failed: %s", c.opts.URL, errors.Summary(err))
		return err
	}
	defer conn.Close()

	c.setState(rpc.Open, nil)

	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.attemptCtx = attemptCtx

	err = c.reg.Link(attemptCtx, codec.New(attemptCtx, conn))
	if err == nil {
		err = errors.NewConnectionLost(io.EOF)
	}
	return err
}

// Linked records the Linked transition and runs OnLinked. It is meant to be
// the registry's OnConnect hook, which runs on the Run goroutine.
func (c *Controller) Linked() {
	c.setState(rpc.Linked, nil)
	if c.opts.OnLinked != nil && c.attemptCtx != nil {
		c.opts.OnLinked(c.attemptCtx)
	}
}

func (c *Controller) setState(s rpc.State, err error) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()

	if prev == s && err == nil {
		return
	}
	if err != nil {
		c.log.Debug("%s -> %s: %s", prev, s, errors.Summary(err))
	} else {
		c.log.Debug("%s -> %s", prev, s)
	}
	if c.opts.OnState != nil {
		c.opts.OnState(s, err)
	}
}
