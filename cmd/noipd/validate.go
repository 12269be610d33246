package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/noipupdater/config"
)

// validateCmd validates a config file without starting anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a configuration file without polling.

This command parses the YAML, expands environment variables, normalizes
hostnames and checks that polling could start. It's useful before
deploying or in CI.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  noipd validate -c noipd.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	pollCfg, err := config.BuildPollConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := pollCfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Account:   %s\n", pollCfg.Credentials)
	fmt.Fprintf(out, "  Hostnames: %s\n", strings.Join(pollCfg.Hostnames.Hostnames(), ", "))
	fmt.Fprintf(out, "  Interval:  %s\n", cfg.Interval)
	fmt.Fprintf(out, "  Timeout:   %s\n", cfg.Timeout)
	fmt.Fprintf(out, "  Dashboard: port %d\n", cfg.Port)
	fmt.Fprintf(out, "  Log file:  %s (%s)\n", cfg.LogFile, cfg.Timezone)

	return nil
}
