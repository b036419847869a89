package cli

import (
	"time"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	watchProbe   ProbeFlags
	watchOpts    WatchOptions
	startProbe   ProbeFlags
	startTimeout time.Duration
	stopTimeout  time.Duration
	statusProbe  ProbeFlags
	statusOpts   StatusOptions
	initProbe    ProbeFlags
	initForce    bool
)

// watchCmd runs the dashboard session in the foreground
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay linked to the probe and show latencies as they arrive",
	Long: `Connect to the probe, push your settings, and print connection changes,
alerts, and a latency summary per command until interrupted.

The connection is retried every reconnect_delay (100ms by default) and your
settings are pushed again on every reconnect. Retries are collapsed into a
single "Disconnected" line until the probe is back.

Examples:
  latensee watch
  latensee watch --start --fresh
  latensee watch --command GET --command SET --interval 250
  latensee watch --start --for 30s --export latency.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(&watchProbe)
		if err != nil {
			return err
		}
		watchOpts.Quiet = Quiet()
		return Watch(cmd.Context(), cmd.OutOrStdout(), cfg, watchOpts)
	},
}

// startCmd asks the probe to start measuring
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Push settings and start measuring",
	Long: `Link to the probe, push your settings, and ask it to start measuring.

Examples:
  latensee start
  latensee start --command "GET key" --interval 1000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(&startProbe)
		if err != nil {
			return err
		}
		return SetMeasuring(cmd.Context(), cmd.OutOrStdout(), cfg, true, startTimeout)
	},
}

// stopCmd asks the probe to stop measuring
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop measuring",
	Long: `Link to the probe and ask it to stop measuring. Your settings are still
pushed on link, so the probe is left configured.

Examples:
  latensee stop`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(nil)
		if err != nil {
			return err
		}
		return SetMeasuring(cmd.Context(), cmd.OutOrStdout(), cfg, false, stopTimeout)
	},
}

// statusCmd shows the probe's state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the probe's settings and whether it is measuring",
	Long: `Link to the probe, push your settings, ask whether it is measuring, and exit.

Examples:
  latensee status
  latensee status --json
  latensee status --socket-url ws://probe.internal:1337`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig(&statusProbe)
		if err != nil {
			return err
		}
		statusOpts.ConfigPath = path
		return Status(cmd.Context(), cmd.OutOrStdout(), cfg, statusOpts)
	},
}

// initCmd creates a new .latensee.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .latensee.yaml configuration",
	Long: `Write a commented .latensee.yaml with the default settings to the current
directory. Probe flags and --socket-url are written into the file.

Examples:
  latensee init
  latensee init --target-url redis://cache:6379/0 --command GET --command SET
  latensee init --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(cmd.OutOrStdout(), InitOptions{
			Path:      Config(),
			SocketURL: socketURLFlag,
			Probe:     initProbe,
			Overwrite: initForce,
		})
	},
}

// doctorCmd diagnoses config and probe connectivity
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose config and probe connection issues",
	Long: `Run diagnostic checks to identify and fix common issues.

Checks:
  - Config file discovery and validity
  - Websocket reachability of the probe
  - An RPC round trip to the probe

Examples:
  latensee doctor
  latensee doctor --fix
  latensee doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for latensee.

Examples:
  # Bash
  latensee completion bash > /etc/bash_completion.d/latensee

  # Zsh
  latensee completion zsh > "${fpath[1]}/_latensee"

  # Fish
  latensee completion fish > ~/.config/fish/completions/latensee.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrConfig,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// watch command flags
	AddProbeFlags(watchCmd, &watchProbe)
	watchCmd.Flags().BoolVar(&watchOpts.Start, "start", false, "start measuring once linked")
	watchCmd.Flags().BoolVar(&watchOpts.Fresh, "fresh", false, "with --start, clear collected samples first")
	watchCmd.Flags().StringVar(&watchOpts.ExportPath, "export", "", "write collected samples as CSV to this file on exit")
	watchCmd.Flags().DurationVar(&watchOpts.SummaryEvery, "summary-every", 5*time.Second, "print the latency summary this often (0 prints it only on exit)")
	watchCmd.Flags().DurationVar(&watchOpts.For, "for", 0, "exit after this long (e.g., 30s, 5m)")

	// start/stop command flags
	AddProbeFlags(startCmd, &startProbe)
	startCmd.Flags().DurationVar(&startTimeout, "timeout", DefaultCommandTimeout, "how long to wait for the probe")
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", DefaultCommandTimeout, "how long to wait for the probe")

	// status command flags
	AddProbeFlags(statusCmd, &statusProbe)
	statusCmd.Flags().DurationVar(&statusOpts.Timeout, "timeout", DefaultCommandTimeout, "how long to wait for the probe")
	statusCmd.Flags().BoolVar(&statusOpts.JSON, "json", false, "output in JSON format")

	// init command flags
	initCmd.Flags().StringVar(&initProbe.TargetURL, "target-url", "", "data store the probe measures")
	initCmd.Flags().Int64Var(&initProbe.Interval, "interval", 0, "measurement interval in milliseconds")
	initCmd.Flags().StringArrayVar(&initProbe.Commands, "command", nil, "command to measure (repeatable)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")

	// Register all commands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(completionCmd)
}

// exitOnFailure turns a reported failure into a non-zero exit without
// printing anything more.
func exitOnFailure(failed bool) error {
	if failed {
		return errors.NewExitError(1)
	}
	return nil
}
