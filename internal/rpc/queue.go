package rpc

import (
	"context"
	"sync"

	"github.com/rileyhilliard/latensee/internal/codec"
)

// callQueue is an unbounded FIFO between the read loop and the call worker.
// Pushing never blocks, so a slow handler can't stall frame reading.
type callQueue struct {
	mu     sync.Mutex
	items  []*codec.Call
	closed bool
	ready  chan struct{}
}

func newCallQueue() *callQueue {
	return &callQueue{ready: make(chan struct{}, 1)}
}

func (q *callQueue) push(c *codec.Call) {
	q.mu.Lock()
	q.items = append(q.items, c)
	q.mu.Unlock()
	q.signal()
}

func (q *callQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *callQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// pop blocks until a call is queued. It returns false once the queue is
// closed and drained, or ctx is done.
func (q *callQueue) pop(ctx context.Context) (*codec.Call, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			c := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return c, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, false
		}
	}
}
