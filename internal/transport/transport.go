// Package transport provides the duplex, message-oriented connections the
// dashboard speaks RPC over: a websocket client/server pair for real probes
// and an in-memory pipe for tests.
package transport

import (
	"context"
)

// Conn is a duplex, message-oriented connection. One Write is one transport
// message; Read returns the next inbound message whole. Read returns io.EOF
// once the peer closed cleanly.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, p []byte) error
	Close() error
}

// Dialer opens a Conn to a URL. The reconnect loop takes a Dialer so tests can
// swap the websocket for a pipe or a failing stub.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial calls f(ctx, url).
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}
