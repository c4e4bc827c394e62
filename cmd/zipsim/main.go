// Command zipsim runs the zipper-merge traffic simulator, either as a
// headless batch run writing a JSON log to stdout, or as a server streaming
// per-tick snapshots to rendering clients.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "zipsim",
		Short: "Zipper-merge traffic simulator",
		Long: `zipsim simulates vehicles negotiating a partial lane closure on a
discretized multi-lane road. Vehicles carry individually sampled driving
traits and negotiate merges through urgency, cooperation quotas, and gap
acceptance.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML scenario file (defaults apply when omitted)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the stderr slog logger shared by all subcommands.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
