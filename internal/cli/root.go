package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rileyhilliard/latensee/internal/errors"
	"github.com/rileyhilliard/latensee/internal/logger"
	"github.com/rileyhilliard/latensee/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile       string
	socketURLFlag string
	verboseFlag   bool
	quietFlag     bool
	noColorFlag   bool
)

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "latensee",
	Short: "Watch command latencies reported by a LatenSee probe",
	Long: `LatenSee connects to a latency probe over a websocket, keeps the probe's
target, interval and command list in line with your config, and shows the
latencies it reports.

The connection is retried every 100ms until it comes back, and your settings
are pushed again on every reconnect.

Examples:
  latensee watch --start
  latensee status
  latensee doctor`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Configure(os.Stderr, noColorFlag)
		logger.SetVerbose(verboseFlag)
		ui.ConfigureColors(ui.ColorAuto, noColorFlag, os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: search for .latensee.yaml)")
	rootCmd.PersistentFlags().StringVar(&socketURLFlag, "socket-url", "", "probe websocket URL (overrides socket_url)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "only print state changes and alerts")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
}

// Execute runs the root command. Interrupts cancel the command's context so
// long-running commands can shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printError(err)
	}
	return err
}

// printError writes err to stderr. Structured errors render their own
// layout; ExitErrors have already reported.
func printError(err error) {
	if _, ok := errors.GetExitCode(err); ok {
		return
	}
	var lsErr *errors.Error
	if stderrors.As(err, &lsErr) {
		fmt.Fprintln(os.Stderr, lsErr.Error())
		return
	}
	fmt.Fprintf(os.Stderr, "✗ %s\n", err)
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Verbose returns whether --verbose is set.
func Verbose() bool {
	return verboseFlag
}

// Quiet returns whether --quiet is set.
func Quiet() bool {
	return quietFlag
}

// NoColor returns whether --no-color is set.
func NoColor() bool {
	return noColorFlag
}
