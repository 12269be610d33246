package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/noipupdater/config"
)

// hostnameCmd groups the hostname management subcommands.
var hostnameCmd = &cobra.Command{
	Use:     "hostname",
	Aliases: []string{"hostnames"},
	Short:   "Manage the hostnames in the config file",
	Long: `Add, remove and list the hostnames kept up to date.

Changes are written to the config file immediately and take effect the
next time polling is started.

Example:
  noipd hostname add home.ddns.net
  noipd hostname remove home.ddns.net
  noipd hostname list`,
}

var hostnameAddCmd = &cobra.Command{
	Use:   "add <hostname>",
	Short: "Add a hostname",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.AddHostname(configPath(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d hostnames)\n", cfg.Hostnames[len(cfg.Hostnames)-1], len(cfg.Hostnames))
		return nil
	},
}

var hostnameRemoveCmd = &cobra.Command{
	Use:     "remove <hostname>",
	Aliases: []string{"rm"},
	Short:   "Remove a hostname",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RemoveHostname(configPath(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%d hostnames)\n", args[0], len(cfg.Hostnames))
		return nil
	},
}

var hostnameListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List hostnames",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath(cmd))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(cfg.Hostnames) == 0 {
			fmt.Fprintln(out, "No hostnames configured")
			return nil
		}
		for _, h := range cfg.Hostnames {
			fmt.Fprintln(out, h)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hostnameCmd)
	hostnameCmd.AddCommand(hostnameAddCmd, hostnameRemoveCmd, hostnameListCmd)
}
