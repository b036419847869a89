// Package cli implements the latensee command-line interface.
//
// The package is organized around Cobra commands, with each command
// resolving its config and then delegating to an exported function that
// does the work against an io.Writer:
//
//   - Command definitions (cobra.Command instances in commands.go)
//   - Command implementations (Watch, Status, SetMeasuring, Init)
//   - The session, doctor and ui packages for everything else
//
// # Command Structure
//
// The root command is "latensee" with subcommands:
//
//	latensee watch      - Stay linked and show latencies until interrupted
//	latensee start      - Push settings and start measuring
//	latensee stop       - Stop measuring
//	latensee status     - Show settings and measuring status, then exit
//	latensee init       - Create .latensee.yaml config
//	latensee doctor     - Diagnose config and probe connectivity
//	latensee version    - Print version information
//
// # One-shot Commands
//
// start, stop and status run a session only until its first link is ready,
// meaning the configured settings were pushed and the measuring status was
// read. withLinkedSession waits for that, runs the command's call and shuts
// the session down. Settings the probe refused are printed as alerts but
// don't fail the command.
//
// # Flag Handling
//
// Global flags (--config, --socket-url, --verbose, --quiet, --no-color) are
// defined on the root command and available to all subcommands.
//
// The ProbeFlags type and AddProbeFlags function add the probe overrides
// (--target-url, --interval, --command, --save) to commands that link. With
// --save the overrides are written back into the config file, keeping its
// comments.
package cli
