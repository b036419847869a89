package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rileyhilliard/latensee/internal/config"
	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/ui"
	"github.com/spf13/cobra"
)

// DefaultCommandTimeout bounds how long one-shot commands wait for the probe.
const DefaultCommandTimeout = 5 * time.Second

// ProbeFlags override the probe section of the config for one invocation.
type ProbeFlags struct {
	TargetURL string
	Interval  int64
	Commands  []string
	Save      bool
}

// AddProbeFlags registers --target-url, --interval, --command, and --save on a command.
func AddProbeFlags(cmd *cobra.Command, flags *ProbeFlags) {
	cmd.Flags().StringVar(&flags.TargetURL, "target-url", "", "data store the probe measures (e.g., redis://localhost:6379/0)")
	cmd.Flags().Int64Var(&flags.Interval, "interval", 0, "measurement interval in milliseconds")
	cmd.Flags().StringArrayVar(&flags.Commands, "command", nil, "command to measure (repeatable, replaces the configured list)")
	cmd.Flags().BoolVar(&flags.Save, "save", false, "write the overrides back to the config file")
}

// Changed reports whether any override is set.
func (f *ProbeFlags) Changed() bool {
	return f.TargetURL != "" || f.Interval != 0 || len(f.Commands) > 0
}

// Apply copies the overrides into cfg.
func (f *ProbeFlags) Apply(cfg *config.Config) {
	if f.TargetURL != "" {
		cfg.Probe.TargetURL = f.TargetURL
	}
	if f.Interval != 0 {
		cfg.Probe.Interval = f.Interval
	}
	if len(f.Commands) > 0 {
		cfg.Probe.Commands = append([]string(nil), f.Commands...)
	}
}

// loadConfig resolves the config file, applies global and probe overrides,
// validates the result, and saves the probe section when --save is set.
// It returns the config and the file it came from (empty for defaults).
func loadConfig(probe *ProbeFlags) (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, "", err
	}

	if socketURLFlag != "" {
		cfg.SocketURL = socketURLFlag
	}
	if probe != nil {
		probe.Apply(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	ui.ConfigureColors(cfg.Output.Color, noColorFlag, os.Stdout)

	if probe != nil && probe.Save {
		if err := saveProbe(cfg, path); err != nil {
			return nil, "", err
		}
	}

	return cfg, path, nil
}

func saveProbe(cfg *config.Config, path string) error {
	if path == "" {
		return errors.New(errors.ErrConfig,
			"--save needs a config file to write to",
			"Run 'latensee init' to create one, or pass --config")
	}
	if err := config.UpdateProbe(path, cfg.Probe); err != nil {
		return err
	}
	fmt.Printf("%s Saved probe settings to %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
	return nil
}
