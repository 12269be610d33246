// Package main is the entry point for the noipd CLI.
//
// noipd keeps No-IP dynamic DNS hostnames pointed at this machine. It polls
// the provider for every configured hostname, logs each outcome, and serves
// a small dashboard with Start and Stop controls.
//
// Usage:
//
//	noipd run -c noipd.yaml              # Poll and serve the dashboard
//	noipd validate -c noipd.yaml         # Validate configuration
//	noipd hostname add home.ddns.net     # Manage hostnames
//	noipd login                          # Store credentials
//	noipd version                        # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const defaultConfigFile = "noipd.yaml"

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "noipd",
	Short: "Keep No-IP dynamic DNS hostnames up to date",
	Long: `noipd periodically sends authenticated update requests to No-IP for
every configured hostname so each keeps pointing at this machine.

Quick start:
  1. noipd login                       # store username and password
  2. noipd hostname add home.ddns.net  # add hostnames
  3. noipd run                         # poll and serve the dashboard
  4. Open http://localhost:8080 in your browser

Example config:
  username: me@example.com
  password: ${NOIP_PASSWORD}
  interval: 5m
  hostnames:
    - home.ddns.net`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this noipd binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "noipd %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigFile, "path to config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// configPath returns the --config flag value.
func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	return path
}

// newLogger creates a JSON logger for CLI use.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", raw, err)
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})), nil
}
