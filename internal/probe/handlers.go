package probe

import (
	"context"
	"encoding/json"

	"github.com/rileyhilliard/latensee/internal/rpc"
)

// LocalHandlers builds the method table that serves l to the probe.
func LocalHandlers(l Local) rpc.Handlers {
	return rpc.Handlers{
		MethodDeliverSample: func(ctx context.Context, args []json.RawMessage) (any, error) {
			command, err := rpc.Arg[string](args, 0)
			if err != nil {
				return nil, err
			}
			latency, err := rpc.Arg[float64](args, 1)
			if err != nil {
				return nil, err
			}
			return nil, l.DeliverSample(ctx, command, latency)
		},
		MethodReportError: func(ctx context.Context, args []json.RawMessage) (any, error) {
			message, err := rpc.Arg[string](args, 0)
			if err != nil {
				return nil, err
			}
			return nil, l.ReportError(ctx, message)
		},
	}
}

// RemoteHandlers builds the method table that serves p to a dashboard. Only
// probe implementations, like the fake in probe/testing, need it.
func RemoteHandlers(p Probe) rpc.Handlers {
	return rpc.Handlers{
		MethodSetTargetURL: func(ctx context.Context, args []json.RawMessage) (any, error) {
			url, err := rpc.Arg[string](args, 0)
			if err != nil {
				return nil, err
			}
			return nil, p.SetTargetURL(ctx, url)
		},
		MethodSetInterval: func(ctx context.Context, args []json.RawMessage) (any, error) {
			ms, err := rpc.Arg[int64](args, 0)
			if err != nil {
				return nil, err
			}
			return nil, p.SetInterval(ctx, ms)
		},
		MethodSetCommands: func(ctx context.Context, args []json.RawMessage) (any, error) {
			commands, err := rpc.Arg[[]string](args, 0)
			if err != nil {
				return nil, err
			}
			return nil, p.SetCommands(ctx, commands)
		},
		MethodStartMeasurement: func(ctx context.Context, args []json.RawMessage) (any, error) {
			return nil, p.StartMeasurement(ctx)
		},
		MethodStopMeasurement: func(ctx context.Context, args []json.RawMessage) (any, error) {
			return nil, p.StopMeasurement(ctx)
		},
		MethodIsMeasuring: func(ctx context.Context, args []json.RawMessage) (any, error) {
			return p.IsMeasuring(ctx)
		},
	}
}
