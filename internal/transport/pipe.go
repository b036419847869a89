package transport

import (
	"context"
	"io"
	"sync"
)

const pipeBuffer = 64

// PipeConn is one end of an in-memory duplex pipe. Closing either end closes
// both; messages already queued are still delivered before io.EOF.
type PipeConn struct {
	in     chan []byte
	out    chan []byte
	closed chan struct{}
	once   *sync.Once
}

// Pipe returns two connected ends.
func Pipe() (*PipeConn, *PipeConn) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	closed := make(chan struct{})
	once := &sync.Once{}

	a := &PipeConn{in: ba, out: ab, closed: closed, once: once}
	b := &PipeConn{in: ab, out: ba, closed: closed, once: once}
	return a, b
}

// Read returns the next message written by the other end.
func (p *PipeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	default:
	}

	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.closed:
		// Drain whatever the peer queued before closing.
		select {
		case msg := <-p.in:
			return msg, nil
		default:
			return nil, io.EOF
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Write queues a copy of msg for the other end.
func (p *PipeConn) Write(ctx context.Context, msg []byte) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	default:
	}

	buf := make([]byte, len(msg))
	copy(buf, msg)

	select {
	case p.out <- buf:
		return nil
	case <-p.closed:
		return io.ErrClosedPipe
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteString is a test convenience for injecting raw text.
func (p *PipeConn) WriteString(s string) error {
	return p.Write(context.Background(), []byte(s))
}

// Close closes both ends.
func (p *PipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
