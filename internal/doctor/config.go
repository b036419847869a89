package doctor

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
)

// ConfigFileCheck reports which config file would be used.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	InitPath   string // Where Fix writes a default config; empty means ./.latensee.yaml
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return "CONFIG" }

func (c *ConfigFileCheck) Run(ctx context.Context) CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Error finding config: %s", errors.Summary(err)),
			Suggestion: "Check the --config path, or run 'latensee init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Status:     StatusWarn,
			Message:    "No config file found, using built-in defaults",
			Suggestion: "Run 'latensee init' to create a " + config.ConfigFileName,
			Fixable:    true,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", filepath.Base(path)),
	}
}

// Fix writes the default config when none exists.
func (c *ConfigFileCheck) Fix() error {
	if path, err := config.Find(c.ConfigPath); err != nil || path != "" {
		return err
	}
	target := c.InitPath
	if target == "" {
		target = config.ConfigFileName
	}
	return config.WriteDefault(target, config.DefaultConfig(), false)
}

// ConfigSchemaCheck loads the resolved config and validates it.
type ConfigSchemaCheck struct {
	ConfigPath string
}

func (c *ConfigSchemaCheck) Name() string     { return "config_schema" }
func (c *ConfigSchemaCheck) Category() string { return "CONFIG" }

func (c *ConfigSchemaCheck) Run(ctx context.Context) CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Failed to load config: %s", errors.Summary(err)),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		suggestion := "Fix the configuration errors in your " + config.ConfigFileName
		var lsErr *errors.Error
		if stderrors.As(err, &lsErr) && lsErr.Suggestion != "" {
			suggestion = lsErr.Suggestion
		}
		return CheckResult{
			Status:     StatusFail,
			Message:    fmt.Sprintf("Schema error: %s", errors.Summary(err)),
			Suggestion: suggestion,
		}
	}

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("Schema valid (%d commands every %dms)", len(cfg.Probe.Commands), cfg.Probe.Interval),
	}
}

func (c *ConfigSchemaCheck) Fix() error {
	return nil // Schema issues require manual intervention
}
