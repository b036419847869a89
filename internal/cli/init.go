package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/ui"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path      string     // Where to write; empty means ./.latensee.yaml
	SocketURL string     // Probe address to record, empty for the default
	Probe     ProbeFlags // Probe settings to record instead of the defaults
	Overwrite bool       // Overwrite an existing config
}

// Init writes a new .latensee.yaml with defaults and the given overrides.
func Init(w io.Writer, opts InitOptions) error {
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}
	configPath = config.ExpandTilde(configPath)

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config file already exists: %s", configPath),
			"Use --force to overwrite")
	}

	cfg := config.DefaultConfig()
	if opts.SocketURL != "" {
		cfg.SocketURL = opts.SocketURL
	}
	opts.Probe.Apply(cfg)

	if err := config.Validate(cfg); err != nil {
		return err
	}

	if err := config.WriteDefault(configPath, cfg, opts.Overwrite); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", configPath),
			"Check directory permissions")
	}

	fmt.Fprintf(w, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), configPath)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  latensee doctor         - Check the config and reach the probe")
	fmt.Fprintln(w, "  latensee watch --start  - Start measuring and watch latencies")
	fmt.Fprintln(w, "  latensee status         - Show what the probe is doing")

	return nil
}
