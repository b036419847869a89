package transport

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
)

// Defaults for websocket connections.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultPingInterval = 500 * time.Millisecond
	defaultReadLimit    = 1 << 20
)

// Options configure websocket connections.
type Options struct {
	// DialTimeout bounds the opening handshake. Zero means DefaultDialTimeout.
	DialTimeout time.Duration

	// PingInterval is how often keepalive pings are sent. Zero means
	// DefaultPingInterval, negative disables pings.
	PingInterval time.Duration

	Logger logger.Logger
}

func (o Options) withDefaults() Options {
	if o.DialTimeout == 0 {
		o.DialTimeout = DefaultDialTimeout
	}
	if o.PingInterval == 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.Logger == nil {
		o.Logger = logger.NewEnvLogger("[transport]")
	}
	return o
}

// WebSocket is a Conn backed by a websocket. Frames are sent as text messages.
type WebSocket struct {
	c         *websocket.Conn
	log       logger.Logger
	stopPing  context.CancelFunc
	closeOnce sync.Once
	closeErr  error
}

// Dial opens a websocket to url and starts keepalive pings.
func Dial(ctx context.Context, url string, opts Options) (*WebSocket, error) {
	opts = opts.withDefaults()

	dialCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()

	c, resp, err := websocket.Dial(dialCtx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport,
			"Can't open websocket to "+url,
			"Check the probe is running and --socket-url points at it")
	}

	return newWebSocket(c, opts), nil
}

// Accept upgrades an HTTP request to a websocket. Used by probe-side servers.
func Accept(w http.ResponseWriter, r *http.Request, opts Options) (*WebSocket, error) {
	opts = opts.withDefaults()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrTransport, "Websocket handshake failed", "")
	}

	return newWebSocket(c, opts), nil
}

func newWebSocket(c *websocket.Conn, opts Options) *WebSocket {
	c.SetReadLimit(defaultReadLimit)

	pingCtx, stop := context.WithCancel(context.Background())
	ws := &WebSocket{
		c:        c,
		log:      opts.Logger,
		stopPing: stop,
	}
	if opts.PingInterval > 0 {
		go ws.keepAlive(pingCtx, opts.PingInterval)
	}
	return ws
}

// keepAlive pings until ctx ends. A failed ping kills the connection so the
// blocked reader notices the dead peer.
func (w *WebSocket) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 4*interval)
			err := w.c.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					w.log.Debug("ping failed, dropping connection: %v", err)
					_ = w.c.CloseNow()
				}
				return
			}
		}
	}
}

// Read returns the next message payload. A normal close from the peer is io.EOF.
func (w *WebSocket) Read(ctx context.Context) ([]byte, error) {
	_, p, err := w.c.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, io.EOF
		}
		return nil, err
	}
	return p, nil
}

// Write sends p as one text message.
func (w *WebSocket) Write(ctx context.Context, p []byte) error {
	return w.c.Write(ctx, websocket.MessageText, p)
}

// Close performs the closing handshake. Safe to call more than once.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() {
		w.stopPing()
		w.closeErr = w.c.Close(websocket.StatusNormalClosure, "")
	})
	return w.closeErr
}

// WebSocketDialer dials websockets with fixed Options.
type WebSocketDialer struct {
	Options Options
}

// Dial implements Dialer.
func (d WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	return Dial(ctx, url, d.Options)
}
