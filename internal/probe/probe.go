// Package probe defines the two capability surfaces spoken over the RPC link:
// Local, which the probe calls to deliver samples and errors to the
// dashboard, and Probe, which the dashboard calls to configure and drive
// measurement. Method names match the wire names the probe serves.
package probe

import (
	"context"
	stderrors "errors"
)

// Wire method names.
const (
	MethodDeliverSample = "HandleLatencyMeasurement"
	MethodReportError   = "HandleError"

	MethodSetTargetURL     = "SetURL"
	MethodSetInterval      = "SetInterval"
	MethodSetCommands      = "SetCommands"
	MethodStartMeasurement = "StartLatencyMeasurement"
	MethodStopMeasurement  = "StopLatencyMeasurement"
	MethodIsMeasuring      = "GetIsLatencyMeasuring"
)

// ErrAlreadyMeasuring is what a probe answers to StartMeasurement while a
// measurement run is already in progress.
var ErrAlreadyMeasuring = stderrors.New("already measuring")

// Local is the surface the probe calls on the dashboard.
type Local interface {
	// DeliverSample records one latency measurement for command.
	DeliverSample(ctx context.Context, command string, latencyMicroseconds float64) error

	// ReportError surfaces a probe-side failure to the operator.
	ReportError(ctx context.Context, message string) error
}

// Probe is the surface the dashboard calls on the probe.
type Probe interface {
	SetTargetURL(ctx context.Context, url string) error
	SetInterval(ctx context.Context, milliseconds int64) error
	SetCommands(ctx context.Context, commands []string) error
	StartMeasurement(ctx context.Context) error
	StopMeasurement(ctx context.Context) error
	IsMeasuring(ctx context.Context) (bool, error)
}

// Caller issues one request/response call over a link. *rpc.Registry
// implements it.
type Caller interface {
	Call(ctx context.Context, method string, result any, args ...any) error
}
