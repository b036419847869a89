package config

import (
	"fmt"
	"net/url"

	"github.com/rileyhilliard/latensee/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	// Check version
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but latensee only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest latensee: https://github.com/rileyhilliard/latensee/releases")
	}

	if err := validateSocketURL(cfg.SocketURL); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Set socket_url to the probe's websocket address, like ws://localhost:1337")
	}

	// Already a CONFIG error naming the probe.* key
	if err := cfg.Desired().Validate(); err != nil {
		return err
	}

	if err := validateDashboard(cfg.Dashboard); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'dashboard' section in your .latensee.yaml.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the 'output' section in your .latensee.yaml.")
	}

	return nil
}

// validateSocketURL requires an absolute ws:// or wss:// URL.
func validateSocketURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("socket_url can't be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("socket_url '%s' isn't a valid URL: %v", raw, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("socket_url '%s' must start with ws:// or wss://", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("socket_url '%s' is missing a host", raw)
	}
	return nil
}

// validateDashboard checks connection tuning.
func validateDashboard(d DashboardConfig) error {
	if d.MaxIntervals < 0 {
		return fmt.Errorf("dashboard.max_intervals can't be negative, got %d", d.MaxIntervals)
	}
	if d.ReconnectDelay < 0 {
		return fmt.Errorf("dashboard.reconnect_delay can't be negative - that doesn't make sense")
	}
	if d.DialTimeout < 0 {
		return fmt.Errorf("dashboard.dial_timeout can't be negative - that doesn't make sense")
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}
