package config

import (
	"time"

	"github.com/rileyhilliard/latensee/internal/session"
	"github.com/rileyhilliard/latensee/internal/telemetry"
	"github.com/rileyhilliard/latensee/internal/transport"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .latensee.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	SocketURL string          `yaml:"socket_url" mapstructure:"socket_url"`
	Probe     ProbeConfig     `yaml:"probe" mapstructure:"probe"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// ProbeConfig is the measurement setup pushed to the probe on every link.
type ProbeConfig struct {
	// TargetURL is the data store the probe measures, e.g. redis://localhost:6379/0.
	// Supports ${USER}, ${HOME} and ${HOSTNAME}.
	TargetURL string `yaml:"target_url" mapstructure:"target_url"`

	// Interval between measurements in milliseconds.
	Interval int64 `yaml:"interval" mapstructure:"interval"`

	// Commands the probe runs against the target each interval.
	Commands []string `yaml:"commands" mapstructure:"commands"`
}

// DashboardConfig controls the local side of the connection.
type DashboardConfig struct {
	// MaxIntervals is how many samples per command the dashboard keeps.
	MaxIntervals int `yaml:"max_intervals" mapstructure:"max_intervals"`

	ReconnectDelay time.Duration `yaml:"reconnect_delay" mapstructure:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	DialTimeout    time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	// Color mode: auto, always, never.
	Color string `yaml:"color" mapstructure:"color"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:   CurrentConfigVersion,
		SocketURL: session.DefaultSocketURL,
		Probe: ProbeConfig{
			TargetURL: session.DefaultTargetURL,
			Interval:  session.DefaultInterval,
			Commands:  session.DefaultCommands(),
		},
		Dashboard: DashboardConfig{
			MaxIntervals:   telemetry.DefaultCapacity,
			ReconnectDelay: session.DefaultReconnectDelay,
			PingInterval:   transport.DefaultPingInterval,
			DialTimeout:    transport.DefaultDialTimeout,
		},
		Output: OutputConfig{
			Color: "auto",
		},
	}
}

// Desired converts the probe section into the session's desired settings.
func (c *Config) Desired() session.DesiredConfig {
	cmds := make([]string, len(c.Probe.Commands))
	copy(cmds, c.Probe.Commands)
	return session.DesiredConfig{
		TargetURL:            c.Probe.TargetURL,
		IntervalMilliseconds: c.Probe.Interval,
		Commands:             cmds,
	}
}

// SessionOptions builds the options a session is started with.
func (c *Config) SessionOptions() session.Options {
	return session.Options{
		SocketURL:      c.SocketURL,
		DialTimeout:    c.Dashboard.DialTimeout,
		PingInterval:   c.Dashboard.PingInterval,
		ReconnectDelay: c.Dashboard.ReconnectDelay,
		Capacity:       c.Dashboard.MaxIntervals,
		Desired:        c.Desired(),
	}
}
