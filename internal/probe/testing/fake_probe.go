// Package testing provides test doubles for the probe package.
package testing

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/latensee/internal/codec"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/probe"
	"github.com/rileyhilliard/latensee/internal/rpc"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// FakeProbe is a websocket probe server for tests. It serves the Probe
// surface, records what dashboards configured, and can push samples back.
type FakeProbe struct {
	srv    *httptest.Server
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	targetURL string
	interval  int64
	commands  []string
	measuring bool
	refuse    bool
	failures  map[string]string
	held      map[string]chan struct{}
	current   *fakeConn
	stopEmit  context.CancelFunc

	// AutoEmit, when set before StartMeasurement, makes the probe deliver
	// one sample per configured command every interval.
	AutoEmit bool
	// Latency is the value auto-emitted samples carry. Zero means 100.
	Latency float64

	// Tracking for assertions
	Calls       map[string]int // Calls received per wire method
	Connections int            // Websocket connections accepted

	connected chan struct{}
}

type fakeConn struct {
	ws  *transport.WebSocket
	reg *rpc.Registry
}

// NewFakeProbe starts a fake probe on a loopback port.
func NewFakeProbe() *FakeProbe {
	ctx, cancel := context.WithCancel(context.Background())
	p := &FakeProbe{
		ctx:       ctx,
		cancel:    cancel,
		failures:  make(map[string]string),
		held:      make(map[string]chan struct{}),
		Calls:     make(map[string]int),
		connected: make(chan struct{}, 64),
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	return p
}

// URL is the ws:// address dashboards should dial.
func (p *FakeProbe) URL() string {
	return "ws" + strings.TrimPrefix(p.srv.URL, "http")
}

// Close drops every connection and stops the server.
func (p *FakeProbe) Close() {
	p.cancel()
	p.srv.Close()
}

func (p *FakeProbe) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	refuse := p.refuse
	p.mu.Unlock()
	if refuse {
		http.Error(w, "probe unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := transport.Accept(w, r, transport.Options{PingInterval: -1, Logger: logger.Noop()})
	if err != nil {
		return
	}
	defer ws.Close()

	reg := rpc.NewRegistry(probe.RemoteHandlers(p), rpc.Hooks{
		OnConnect: func() {
			select {
			case p.connected <- struct{}{}:
			default:
			}
		},
	}, logger.Noop())
	conn := &fakeConn{ws: ws, reg: reg}

	p.mu.Lock()
	p.current = conn
	p.Connections++
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(p.ctx)
	defer cancel()

	_ = reg.Link(ctx, codec.New(ctx, ws))

	p.mu.Lock()
	if p.current == conn {
		p.current = nil
	}
	p.mu.Unlock()
}

// WaitConnected blocks until a dashboard has linked, or timeout passes.
func (p *FakeProbe) WaitConnected(timeout time.Duration) bool {
	select {
	case <-p.connected:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Drop closes the current connection from the probe side.
func (p *FakeProbe) Drop() {
	p.mu.Lock()
	conn := p.current
	p.mu.Unlock()
	if conn != nil {
		_ = conn.ws.Close()
	}
}

// Refuse makes the server reject new websocket handshakes while on.
func (p *FakeProbe) Refuse(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refuse = on
}

// FailMethod makes every call to method fail with message until cleared
// with an empty message.
func (p *FakeProbe) FailMethod(method, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if message == "" {
		delete(p.failures, method)
		return
	}
	p.failures[method] = message
}

// Settings returns what dashboards last configured.
func (p *FakeProbe) Settings() (targetURL string, interval int64, commands []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.targetURL, p.interval, append([]string(nil), p.commands...)
}

// CallCount returns how many times method was received.
func (p *FakeProbe) CallCount(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Calls[method]
}

// ConnectionCount returns how many websocket connections were accepted.
func (p *FakeProbe) ConnectionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Connections
}

// Emit delivers one sample to the connected dashboard.
func (p *FakeProbe) Emit(ctx context.Context, command string, latencyMicroseconds float64) error {
	peer, err := p.peer()
	if err != nil {
		return err
	}
	return peer.DeliverSample(ctx, command, latencyMicroseconds)
}

// ReportError sends a probe-side error to the connected dashboard.
func (p *FakeProbe) ReportError(ctx context.Context, message string) error {
	peer, err := p.peer()
	if err != nil {
		return err
	}
	return peer.ReportError(ctx, message)
}

func (p *FakeProbe) peer() (*probe.Peer, error) {
	p.mu.Lock()
	conn := p.current
	p.mu.Unlock()
	if conn == nil {
		return nil, errors.NewNotConnected(probe.MethodDeliverSample)
	}
	return probe.NewPeer(conn.reg), nil
}

// Hold makes calls to method block, after being counted, until Release or
// until their connection ends.
func (p *FakeProbe) Hold(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.held[method]; !ok {
		p.held[method] = make(chan struct{})
	}
}

// Release unblocks calls held by Hold.
func (p *FakeProbe) Release(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.held[method]; ok {
		close(ch)
		delete(p.held, method)
	}
}

// enter counts a call, waits out any Hold, and returns the configured
// failure for method, if any.
func (p *FakeProbe) enter(ctx context.Context, method string) error {
	p.mu.Lock()
	p.Calls[method]++
	hold := p.held[method]
	p.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if msg, ok := p.failures[method]; ok {
		return stderrors.New(msg)
	}
	return nil
}

// SetTargetURL implements probe.Probe.
func (p *FakeProbe) SetTargetURL(ctx context.Context, url string) error {
	if err := p.enter(ctx, probe.MethodSetTargetURL); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.targetURL = url
	return nil
}

// SetInterval implements probe.Probe.
func (p *FakeProbe) SetInterval(ctx context.Context, milliseconds int64) error {
	if err := p.enter(ctx, probe.MethodSetInterval); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.interval = milliseconds
	return nil
}

// SetCommands implements probe.Probe.
func (p *FakeProbe) SetCommands(ctx context.Context, commands []string) error {
	if err := p.enter(ctx, probe.MethodSetCommands); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append([]string(nil), commands...)
	return nil
}

// StartMeasurement implements probe.Probe.
func (p *FakeProbe) StartMeasurement(ctx context.Context) error {
	if err := p.enter(ctx, probe.MethodStartMeasurement); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.measuring {
		return probe.ErrAlreadyMeasuring
	}
	p.measuring = true

	if p.AutoEmit {
		emitCtx, stop := context.WithCancel(p.ctx)
		p.stopEmit = stop
		go p.emitLoop(emitCtx)
	}
	return nil
}

// StopMeasurement implements probe.Probe.
func (p *FakeProbe) StopMeasurement(ctx context.Context) error {
	if err := p.enter(ctx, probe.MethodStopMeasurement); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measuring = false
	if p.stopEmit != nil {
		p.stopEmit()
		p.stopEmit = nil
	}
	return nil
}

// IsMeasuring implements probe.Probe.
func (p *FakeProbe) IsMeasuring(ctx context.Context) (bool, error) {
	if err := p.enter(ctx, probe.MethodIsMeasuring); err != nil {
		return false, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.measuring, nil
}

// SetMeasuring sets the measuring status without a call, as if another
// dashboard had started the probe.
func (p *FakeProbe) SetMeasuring(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measuring = on
}

func (p *FakeProbe) emitLoop(ctx context.Context) {
	for {
		p.mu.Lock()
		interval := time.Duration(p.interval) * time.Millisecond
		commands := append([]string(nil), p.commands...)
		latency := p.Latency
		p.mu.Unlock()

		if interval <= 0 {
			interval = 500 * time.Millisecond
		}
		if latency == 0 {
			latency = 100
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		for _, command := range commands {
			// Samples sent while no dashboard is linked are lost, like a real probe's.
			if err := p.Emit(ctx, command, latency); err != nil && ctx.Err() != nil {
				return
			}
		}
	}
}

var _ probe.Probe = (*FakeProbe)(nil)
