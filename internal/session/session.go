// Package session is the dashboard's engine: it keeps one RPC link to the
// probe alive, pushes the operator's desired configuration on every link and
// change, collects samples into a telemetry buffer and reports everything
// through a single event stream.
package session

import (
	"context"
	stderrors "errors"
	"io"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/probe"
	"github.com/rileyhilliard/latensee/internal/rpc"
	"github.com/rileyhilliard/latensee/internal/telemetry"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// DefaultSocketURL is where the probe listens unless configured otherwise.
const DefaultSocketURL = "ws://localhost:1337"

// Options configure a Session.
type Options struct {
	// SocketURL is the probe's websocket address. Empty means DefaultSocketURL.
	SocketURL string

	// Dialer opens transports. Nil means a websocket dialer built from
	// DialTimeout and PingInterval.
	Dialer       transport.Dialer
	DialTimeout  time.Duration
	PingInterval time.Duration

	// ReconnectDelay is the wait between attempts. Zero means 100ms.
	ReconnectDelay time.Duration

	// Capacity is the number of samples kept per command. Zero means 60.
	Capacity int

	// Desired is the initial configuration. The zero value means defaults.
	Desired DesiredConfig

	Logger logger.Logger
}

// Session is safe for concurrent use.
type Session struct {
	log     logger.Logger
	buffer  *telemetry.Buffer
	desired *desiredStore
	events  broadcaster

	reg    *rpc.Registry
	remote *probe.Remote
	syncer *Synchronizer
	ctrl   *Controller

	measuring atomic.Bool
}

// New creates a session. It doesn't connect until Run.
func New(opts Options) (*Session, error) {
	desired := opts.Desired
	if desired.TargetURL == "" && desired.IntervalMilliseconds == 0 && desired.Commands == nil {
		desired = DefaultDesiredConfig()
	}
	if err := desired.Validate(); err != nil {
		return nil, err
	}

	// A nil logger lets every component fall back to its own prefix.
	log := opts.Logger
	sessionLog := log
	if sessionLog == nil {
		sessionLog = logger.NewEnvLogger("[session]")
	}

	url := opts.SocketURL
	if url == "" {
		url = DefaultSocketURL
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = transport.WebSocketDialer{Options: transport.Options{
			DialTimeout:  opts.DialTimeout,
			PingInterval: opts.PingInterval,
		}}
	}

	s := &Session{
		log:     sessionLog,
		buffer:  telemetry.NewBuffer(opts.Capacity),
		desired: newDesiredStore(desired),
	}

	s.reg = rpc.NewRegistry(probe.LocalHandlers(local{s: s}), rpc.Hooks{
		OnConnect: func() { s.ctrl.Linked() },
		OnFault: func(err error) {
			s.alert(AlertLocal, errors.Summary(err), err)
		},
	}, log)
	s.remote = probe.NewRemote(s.reg)
	s.syncer = NewSynchronizer(s.remote, s.syncFailed, log)
	s.ctrl = NewController(s.reg, ControllerOptions{
		URL:            url,
		Dialer:         dialer,
		ReconnectDelay: opts.ReconnectDelay,
		OnState: func(state rpc.State, err error) {
			s.events.publish(Event{Kind: EventState, State: state, Err: err})
		},
		OnLinked: s.onLinked,
		Logger:   log,
	})

	return s, nil
}

// Run keeps the session connected until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	return s.ctrl.Run(ctx)
}

// Subscribe registers fn for every future event and returns a function that
// unregisters it. fn runs on the goroutine that produced the event and must
// not block.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.events.subscribe(fn)
}

// State returns the connection state.
func (s *Session) State() rpc.State {
	return s.ctrl.State()
}

// Attempts returns the number of connection attempts made so far.
func (s *Session) Attempts() int {
	return s.ctrl.Attempts()
}

// Remote returns the probe stub bound to the session's link.
func (s *Session) Remote() probe.Probe {
	return s.remote
}

// Desired returns a copy of the desired configuration.
func (s *Session) Desired() DesiredConfig {
	return s.desired.get()
}

// Snapshot returns a copy of the telemetry buffer.
func (s *Session) Snapshot() telemetry.Snapshot {
	return s.buffer.Snapshot()
}

// Measuring returns the last known measuring status of the probe.
func (s *Session) Measuring() bool {
	return s.measuring.Load()
}

// SetTargetURL changes the URL the probe measures against.
func (s *Session) SetTargetURL(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	return s.change(ctx, FieldTargetURL, func(d *DesiredConfig) { d.TargetURL = url })
}

// SetInterval changes the time between measurements.
func (s *Session) SetInterval(ctx context.Context, milliseconds int64) error {
	return s.change(ctx, FieldInterval, func(d *DesiredConfig) { d.IntervalMilliseconds = milliseconds })
}

// SetCommands replaces the measured commands.
func (s *Session) SetCommands(ctx context.Context, commands []string) error {
	commands = slices.Clone(commands)
	return s.change(ctx, FieldCommands, func(d *DesiredConfig) { d.Commands = commands })
}

// AddCommand appends command unless it's already measured.
func (s *Session) AddCommand(ctx context.Context, command string) error {
	return s.change(ctx, FieldCommands, func(d *DesiredConfig) {
		if !slices.Contains(d.Commands, command) {
			d.Commands = append(d.Commands, command)
		}
	})
}

// RemoveCommand drops every occurrence of command.
func (s *Session) RemoveCommand(ctx context.Context, command string) error {
	return s.change(ctx, FieldCommands, func(d *DesiredConfig) {
		d.Commands = slices.DeleteFunc(d.Commands, func(c string) bool { return c == command })
	})
}

// change commits a DesiredConfig mutation, announces it, then pushes the
// field. Invalid values are rejected before anything changes. While not
// linked the push fails with NOT_CONNECTED and the next link reconciles.
func (s *Session) change(ctx context.Context, f Field, fn func(*DesiredConfig)) error {
	cfg, changed, err := s.desired.update(fn)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.events.publish(Event{Kind: EventConfig, Config: cfg})
	return s.syncer.SyncField(ctx, f, cfg)
}

// Start asks the probe to measure, keeping samples already collected.
func (s *Session) Start(ctx context.Context) error {
	if err := s.remote.StartMeasurement(ctx); err != nil {
		s.commandFailed(err)
		return err
	}
	s.setMeasuring(true)
	return nil
}

// StartFresh clears the telemetry buffer, then starts measuring.
func (s *Session) StartFresh(ctx context.Context) error {
	s.buffer.Reset()
	return s.Start(ctx)
}

// Stop asks the probe to stop measuring. Collected samples are kept.
func (s *Session) Stop(ctx context.Context) error {
	if err := s.remote.StopMeasurement(ctx); err != nil {
		s.commandFailed(err)
		return err
	}
	s.setMeasuring(false)
	return nil
}

// IsMeasuring asks the probe whether it is measuring.
func (s *Session) IsMeasuring(ctx context.Context) (bool, error) {
	measuring, err := s.remote.IsMeasuring(ctx)
	if err != nil {
		return s.Measuring(), err
	}
	s.setMeasuring(measuring)
	return measuring, nil
}

// Reset clears the telemetry buffer.
func (s *Session) Reset() {
	s.buffer.Reset()
}

// Resize changes how many samples are kept per command.
func (s *Session) Resize(capacity int) {
	s.buffer.Resize(capacity)
}

// Rows flattens the current buffer into export rows.
func (s *Session) Rows() []telemetry.Row {
	return telemetry.Rows(s.buffer.Snapshot(), s.desired.get().IntervalMilliseconds)
}

// ExportCSV writes the current buffer as CSV.
func (s *Session) ExportCSV(w io.Writer) error {
	return telemetry.WriteCSV(w, s.Rows())
}

// onLinked reconciles the probe with DesiredConfig after every link, then
// picks up whether it is already measuring.
func (s *Session) onLinked(ctx context.Context) {
	cfg := s.desired.get()
	syncErr := s.syncer.Sync(ctx, cfg)
	if syncErr != nil {
		s.log.Debug("initial sync incomplete: %s", errors.Summary(syncErr))
	}
	_, statusErr := s.IsMeasuring(ctx)
	if statusErr != nil {
		s.log.Debug("couldn't read measuring status: %s", errors.Summary(statusErr))
	}
	if ctx.Err() == nil {
		s.events.publish(Event{Kind: EventReady, Measuring: s.Measuring(), Err: stderrors.Join(syncErr, statusErr)})
	}
}

func (s *Session) setMeasuring(v bool) {
	if s.measuring.Swap(v) != v {
		s.events.publish(Event{Kind: EventMeasuring, Measuring: v})
	}
}

// syncFailed alerts on rejected pushes. Transport failures aren't alerted:
// reconnecting resyncs everything.
func (s *Session) syncFailed(f Field, err error) {
	if errors.IsCode(err, errors.ErrNotConnected) || errors.IsCode(err, errors.ErrTransport) ||
		stderrors.Is(err, context.Canceled) {
		return
	}
	s.alert(AlertSync, "Couldn't apply "+f.String()+": "+errors.Summary(err), err)
}

func (s *Session) commandFailed(err error) {
	if errors.IsCode(err, errors.ErrRemote) {
		s.alert(AlertCommand, errors.Summary(err), err)
	}
}

func (s *Session) alert(source, message string, err error) {
	s.events.publish(Event{
		Kind:  EventAlert,
		Alert: Alert{Source: source, Message: message, Err: err},
	})
}
