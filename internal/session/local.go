package session

import (
	"context"

	"github.com/rileyhilliard/latensee/internal/probe"
)

// local serves the probe's calls into the session.
type local struct {
	s *Session
}

var _ probe.Local = local{}

func (l local) DeliverSample(ctx context.Context, command string, latencyMicroseconds float64) error {
	l.s.buffer.Push(command, latencyMicroseconds)
	l.s.events.publish(Event{
		Kind: EventSample,
		Sample: Sample{
			Command:             command,
			LatencyMicroseconds: latencyMicroseconds,
			Offset:              l.s.buffer.Offset(),
		},
	})
	return nil
}

func (l local) ReportError(ctx context.Context, message string) error {
	l.s.log.Warn("probe reported: %s", message)
	l.s.alert(AlertProbe, message, nil)
	return nil
}
