package session

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rileyhilliard/latensee/internal/errors"
)

// Defaults for the probe configuration.
const (
	DefaultTargetURL = "redis://localhost:6379/0"
	DefaultInterval  = 500
)

// DefaultCommands returns the commands probed when none are configured.
func DefaultCommands() []string {
	return []string{"set test 0", "get test"}
}

// Field names one setting of DesiredConfig.
type Field int

const (
	FieldTargetURL Field = iota
	FieldInterval
	FieldCommands
)

// Fields lists every DesiredConfig field in push order.
var Fields = []Field{FieldTargetURL, FieldInterval, FieldCommands}

func (f Field) String() string {
	switch f {
	case FieldTargetURL:
		return "target URL"
	case FieldInterval:
		return "interval"
	case FieldCommands:
		return "commands"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// DesiredConfig is the probe configuration the operator wants in effect.
// It is pushed on every link and on every change.
type DesiredConfig struct {
	TargetURL            string
	IntervalMilliseconds int64
	Commands             []string
}

// DefaultDesiredConfig returns the configuration used when nothing is set.
func DefaultDesiredConfig() DesiredConfig {
	return DesiredConfig{
		TargetURL:            DefaultTargetURL,
		IntervalMilliseconds: DefaultInterval,
		Commands:             DefaultCommands(),
	}
}

// Clone returns a copy that shares no memory with d.
func (d DesiredConfig) Clone() DesiredConfig {
	d.Commands = slices.Clone(d.Commands)
	return d
}

// Validate checks d and returns a CONFIG error describing the first problem.
func (d DesiredConfig) Validate() error {
	if strings.TrimSpace(d.TargetURL) == "" {
		return errors.New(errors.ErrConfig,
			"Target URL can't be empty",
			"Set probe.target_url, e.g. "+DefaultTargetURL)
	}
	if d.IntervalMilliseconds <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Interval must be positive, got %d", d.IntervalMilliseconds),
			"Set probe.interval to the number of milliseconds between measurements")
	}
	for i, c := range d.Commands {
		if strings.TrimSpace(c) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Command %d is empty", i+1),
				"Remove the empty entry from probe.commands")
		}
	}
	return nil
}

// desiredStore is the single source of truth for DesiredConfig.
type desiredStore struct {
	mu  sync.Mutex
	cfg DesiredConfig
}

func newDesiredStore(cfg DesiredConfig) *desiredStore {
	return &desiredStore{cfg: cfg.Clone()}
}

func (s *desiredStore) get() DesiredConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// update applies fn to a copy, validates it, and only then commits. It
// returns the committed config and whether anything changed.
func (s *desiredStore) update(fn func(*DesiredConfig)) (DesiredConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg.Clone()
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.cfg.Clone(), false, err
	}

	changed := next.TargetURL != s.cfg.TargetURL ||
		next.IntervalMilliseconds != s.cfg.IntervalMilliseconds ||
		!slices.Equal(next.Commands, s.cfg.Commands)
	s.cfg = next
	return next.Clone(), changed, nil
}
