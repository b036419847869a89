package probe

import "context"

// Remote calls a probe through c.
type Remote struct {
	c Caller
}

var _ Probe = (*Remote)(nil)

// NewRemote returns a Probe stub bound to c.
func NewRemote(c Caller) *Remote {
	return &Remote{c: c}
}

func (r *Remote) SetTargetURL(ctx context.Context, url string) error {
	return r.c.Call(ctx, MethodSetTargetURL, nil, url)
}

func (r *Remote) SetInterval(ctx context.Context, milliseconds int64) error {
	return r.c.Call(ctx, MethodSetInterval, nil, milliseconds)
}

func (r *Remote) SetCommands(ctx context.Context, commands []string) error {
	if commands == nil {
		commands = []string{}
	}
	return r.c.Call(ctx, MethodSetCommands, nil, commands)
}

func (r *Remote) StartMeasurement(ctx context.Context) error {
	return r.c.Call(ctx, MethodStartMeasurement, nil)
}

func (r *Remote) StopMeasurement(ctx context.Context) error {
	return r.c.Call(ctx, MethodStopMeasurement, nil)
}

func (r *Remote) IsMeasuring(ctx context.Context) (bool, error) {
	var measuring bool
	err := r.c.Call(ctx, MethodIsMeasuring, &measuring)
	return measuring, err
}

// Peer calls a dashboard's Local surface through c. Probe implementations
// use it to push samples.
type Peer struct {
	c Caller
}

var _ Local = (*Peer)(nil)

// NewPeer returns a Local stub bound to c.
func NewPeer(c Caller) *Peer {
	return &Peer{c: c}
}

func (p *Peer) DeliverSample(ctx context.Context, command string, latencyMicroseconds float64) error {
	return p.c.Call(ctx, MethodDeliverSample, nil, command, latencyMicroseconds)
}

func (p *Peer) ReportError(ctx context.Context, message string) error {
	return p.c.Call(ctx, MethodReportError, nil, message)
}
