// Package rpc binds a local method table and outbound calls to one codec at a
// time. A Registry outlives individual connections: each Link attaches a
// fresh codec with an empty pending call table, and tears both down when the
// transport ends.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/rileyhilliard/latensee/internal/codec"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
)

// Hooks observe link lifecycle and local faults. Any of them may be nil.
type Hooks struct {
	// OnConnect runs once per Link after the read loop has started, so it may
	// issue Calls and wait for their replies.
	OnConnect func()

	// OnDisconnect runs once per Link after every pending call has failed.
	// err is nil when the peer closed cleanly.
	OnDisconnect func(err error)

	// OnFault receives LOCAL_HANDLER errors. The link stays up.
	OnFault func(err error)
}

// Registry routes inbound calls to Handlers and outbound calls to the peer.
type Registry struct {
	handlers Handlers
	hooks    Hooks
	log      logger.Logger

	mu    sync.Mutex
	state State
	link  *link
}

// NewRegistry creates a registry serving handlers. A nil logger uses the
// "[rpc]" env logger.
func NewRegistry(handlers Handlers, hooks Hooks, log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewEnvLogger("[rpc]")
	}
	if handlers == nil {
		handlers = Handlers{}
	}
	return &Registry{
		handlers: handlers,
		hooks:    hooks,
		log:      log,
		state:    Idle,
	}
}

// State returns the registry's link state: Idle before the first Link,
// Linked while attached and Closed after a link ended.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Pending returns the number of outbound calls awaiting a reply.
func (r *Registry) Pending() int {
	r.mu.Lock()
	l := r.link
	r.mu.Unlock()
	if l == nil {
		return 0
	}
	return l.pendingCount()
}

// Link attaches c and serves it until the transport ends or ctx is done.
// It returns nil after a clean close and the decode or transport error
// otherwise. Only one Link may be active at a time.
func (r *Registry) Link(ctx context.Context, c *codec.Codec) error {
	r.mu.Lock()
	if r.link != nil {
		r.mu.Unlock()
		return errors.New(errors.ErrTransport, "Registry is already linked", "Close the current connection before linking another")
	}
	l := newLink(c)
	r.link = l
	r.state = Linked
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	queue := newCallQueue()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			call, ok := queue.pop(ctx)
			if !ok {
				return
			}
			r.dispatch(ctx, l, call)
		}
	}()

	readDone := make(chan error, 1)
	go func() {
		err := r.readLoop(l, queue)
		if ctx.Err() != nil && !errors.IsCode(err, errors.ErrDecode) {
			// Closed by our own cancellation, not by the peer.
			err = nil
		}

		r.mu.Lock()
		r.state = Closed
		r.mu.Unlock()

		cause := err
		if cause == nil {
			cause = io.EOF
		}
		l.shutdown(errors.NewConnectionLost(cause))
		queue.close()
		readDone <- err
	}()

	r.log.Debug("linked")
	if r.hooks.OnConnect != nil {
		r.hooks.OnConnect()
	}

	err := <-readDone
	cancel()
	<-workerDone

	r.mu.Lock()
	r.link = nil
	r.mu.Unlock()

	if err != nil {
		r.log.Debug("link ended: %s", errors.Summary(err))
	} else {
		r.log.Debug("link closed")
	}
	if r.hooks.OnDisconnect != nil {
		r.hooks.OnDisconnect(err)
	}
	return err
}

// Call invokes method on the peer and waits for its reply. When result is
// non-nil the return value is decoded into it. Calls fail immediately with
// NOT_CONNECTED unless a link is active; a link that ends while the call is
// pending fails it with a TRANSPORT connection-lost error.
func (r *Registry) Call(ctx context.Context, method string, result any, args ...any) error {
	r.mu.Lock()
	l := r.link
	linked := r.state == Linked
	r.mu.Unlock()
	if !linked || l == nil {
		return errors.NewNotConnected(method)
	}

	id := uuid.NewString()
	f, err := codec.NewCall(id, method, args...)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrDecode, "Couldn't encode arguments for "+method, "")
	}

	replies, err := l.register(id, method)
	if err != nil {
		return err
	}

	if err := l.codec.Encode(ctx, f); err != nil {
		l.forget(id)
		return errors.NewConnectionLost(err)
	}

	select {
	case rep := <-replies:
		if rep.err != nil {
			return rep.err
		}
		if result != nil && len(rep.value) > 0 {
			if err := json.Unmarshal(rep.value, result); err != nil {
				return errors.WrapWithCode(err, errors.ErrDecode,
					fmt.Sprintf("Couldn't decode %s result", method), "")
			}
		}
		return nil
	case <-ctx.Done():
		l.forget(id)
		return ctx.Err()
	}
}

func (r *Registry) readLoop(l *link, queue *callQueue) error {
	for f, err := range l.codec.Frames() {
		if err != nil {
			return err
		}
		switch f.Kind() {
		case codec.KindCall:
			queue.push(f.Call)
		case codec.KindReturn:
			if !l.resolve(f.Return.ID, reply{value: f.Return.Value}) {
				r.log.Debug("ignoring return for unknown call %s", f.Return.ID)
			}
		case codec.KindError:
			if !l.resolveError(f.Error.ID, f.Error.Message) {
				r.log.Debug("ignoring error for unknown call %s: %s", f.Error.ID, f.Error.Message)
			}
		}
	}
	return nil
}

// dispatch serves one inbound call. Handler failures are reported to the peer
// and to OnFault; they never end the link.
func (r *Registry) dispatch(ctx context.Context, l *link, call *codec.Call) {
	h, ok := r.handlers[call.Method]
	if !ok {
		r.log.Warn("peer called unknown method %q", call.Method)
		r.reply(ctx, l, codec.NewError(call.ID, fmt.Sprintf("unknown method %q", call.Method)))
		return
	}

	value, err := invoke(ctx, h, call.Args)
	if err == nil {
		var f codec.Frame
		if f, err = codec.NewReturn(call.ID, value); err == nil {
			r.reply(ctx, l, f)
			return
		}
	}

	fault := errors.NewLocalHandlerFault(call.Method, err)
	r.log.Error("%s", errors.Summary(fault))
	if r.hooks.OnFault != nil {
		r.hooks.OnFault(fault)
	}
	r.reply(ctx, l, codec.NewError(call.ID, err.Error()))
}

func (r *Registry) reply(ctx context.Context, l *link, f codec.Frame) {
	if err := l.codec.Encode(ctx, f); err != nil {
		r.log.Debug("couldn't reply to %s: %s", f.ID(), errors.Summary(err))
	}
}

func invoke(ctx context.Context, h Handler, args []json.RawMessage) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return h(ctx, args)
}

type reply struct {
	value json.RawMessage
	err   error
}

type pendingCall struct {
	method  string
	replies chan reply
}

// link is the per-connection half of the registry: the codec and the
// pending call table. It is discarded when the connection ends.
type link struct {
	codec *codec.Codec

	mu      sync.Mutex
	pending map[string]*pendingCall
	err     error
}

func newLink(c *codec.Codec) *link {
	return &link{
		codec:   c,
		pending: make(map[string]*pendingCall),
	}
}

func (l *link) register(id, method string) (<-chan reply, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	pc := &pendingCall{method: method, replies: make(chan reply, 1)}
	l.pending[id] = pc
	return pc.replies, nil
}

func (l *link) take(id string) *pendingCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	pc, ok := l.pending[id]
	if !ok {
		return nil
	}
	delete(l.pending, id)
	return pc
}

func (l *link) forget(id string) {
	l.take(id)
}

func (l *link) resolve(id string, rep reply) bool {
	pc := l.take(id)
	if pc == nil {
		return false
	}
	pc.replies <- rep
	return true
}

func (l *link) resolveError(id, message string) bool {
	pc := l.take(id)
	if pc == nil {
		return false
	}
	pc.replies <- reply{err: errors.NewRemote(pc.method, message)}
	return true
}

func (l *link) pendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// shutdown fails every pending call with err and refuses new ones.
func (l *link) shutdown(err error) {
	l.mu.Lock()
	pending := l.pending
	l.pending = make(map[string]*pendingCall)
	l.err = err
	l.mu.Unlock()

	for _, pc := range pending {
		pc.replies <- reply{err: err}
	}
}
