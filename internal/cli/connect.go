package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/rpc"
	"github.com/rileyhilliard/latensee/internal/session"
)

// linkFunc runs once the session's first link is ready. ready carries the
// measuring status and any settings that failed to apply.
type linkFunc func(ctx context.Context, s *session.Session, ready session.Event) error

// withLinkedSession starts a session for cfg, waits up to timeout for its
// first link to finish syncing, then runs fn with a context bounded by the
// same timeout. The session is shut down before it returns.
func withLinkedSession(ctx context.Context, cfg *config.Config, timeout time.Duration, fn linkFunc) error {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}

	s, err := session.New(cfg.SessionOptions())
	if err != nil {
		return err
	}

	var (
		mu      sync.Mutex
		lastErr error
	)
	ready := make(chan session.Event, 1)
	unsubscribe := s.Subscribe(func(e session.Event) {
		switch e.Kind {
		case session.EventReady:
			select {
			case ready <- e:
			default:
			}
		case session.EventState:
			if e.State == rpc.Degraded && e.Err != nil {
				mu.Lock()
				lastErr = e.Err
				mu.Unlock()
			}
		}
	})
	defer unsubscribe()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- s.Run(runCtx) }()
	defer func() {
		cancel()
		<-done
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e := <-ready:
		callCtx, cancelCall := context.WithTimeout(ctx, timeout)
		defer cancelCall()
		return fn(callCtx, s, e)

	case <-timer.C:
		mu.Lock()
		cause := lastErr
		mu.Unlock()
		return errors.WrapWithCode(cause, errors.ErrTransport,
			fmt.Sprintf("Couldn't link to the probe at %s within %s", cfg.SocketURL, timeout),
			"Check the probe is running, or run 'latensee doctor'")

	case <-ctx.Done():
		return ctx.Err()
	}
}
