package session

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/probe"
)

// Synchronizer pushes DesiredConfig to a probe.
type Synchronizer struct {
	probe     probe.Probe
	onFailure func(Field, error)
	log       logger.Logger
}

// NewSynchronizer creates a synchronizer. onFailure, if set, is called once
// per field that failed to apply.
func NewSynchronizer(p probe.Probe, onFailure func(Field, error), log logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.NewEnvLogger("[sync]")
	}
	return &Synchronizer{probe: p, onFailure: onFailure, log: log}
}

// Sync pushes every field of cfg concurrently and waits for all of them.
// A failed field doesn't roll back the others; the returned error joins
// every failure.
func (s *Synchronizer) Sync(ctx context.Context, cfg DesiredConfig) error {
	errs := make([]error, len(Fields))

	var wg sync.WaitGroup
	for i, f := range Fields {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = s.SyncField(ctx, f, cfg)
		}()
	}
	wg.Wait()

	return stderrors.Join(errs...)
}

// SyncField pushes one field of cfg.
func (s *Synchronizer) SyncField(ctx context.Context, f Field, cfg DesiredConfig) error {
	var err error
	switch f {
	case FieldTargetURL:
		err = s.probe.SetTargetURL(ctx, cfg.TargetURL)
	case FieldInterval:
		err = s.probe.SetInterval(ctx, cfg.IntervalMilliseconds)
	case FieldCommands:
		err = s.probe.SetCommands(ctx, cfg.Commands)
	default:
		err = fmt.Errorf("unknown field %d", int(f))
	}

	if err != nil {
		s.log.Debug("pushing %s failed: %s", f, errors.Summary(err))
		if s.onFailure != nil {
			s.onFailure(f, err)
		}
		return err
	}
	s.log.Debug("pushed %s", f)
	return nil
}
