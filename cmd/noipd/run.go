package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/noipupdater"
	"github.com/jpalmerr/noipupdater/config"
	"github.com/jpalmerr/noipupdater/dashboard"
	"github.com/jpalmerr/noipupdater/internal/journal"
	"github.com/jpalmerr/noipupdater/internal/server"
	"github.com/jpalmerr/noipupdater/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
)

// runCmd polls the configured hostnames and serves the dashboard.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll hostnames and serve the dashboard",
	Long: `Start updating every configured hostname.

The daemon will:
  - Load configuration from the YAML file
  - Start one update worker per hostname (unless start_paused is set)
  - Append every outcome to the log file and print it to the console
  - Serve the dashboard with Start and Stop controls on the configured port

It runs until interrupted (Ctrl+C) or receives SIGTERM, then waits for
in-flight requests to finish.

Example:
  noipd run -c noipd.yaml
  noipd run -c noipd.yaml --interval 1m --pretty
  noipd run --no-dashboard --ask-password`,
	RunE: runRun,
}

var runInterval config.Duration

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Var(&runInterval, "interval", "override the polling interval (e.g. 1m)")
	runCmd.Flags().Bool("no-dashboard", false, "do not serve the dashboard")
	runCmd.Flags().Bool("pretty", false, "colour console output")
	runCmd.Flags().Bool("ask-password", false, "prompt for the password instead of reading it from the config")
}

// controller binds a Supervisor to the configuration it was loaded with so
// the dashboard can start and stop it.
type controller struct {
	*noipupdater.Supervisor
	cfg     noipupdater.PollConfig
	journal *journal.Journal
}

func (c *controller) Start() error {
	if c.IsRunning() {
		return nil
	}
	if err := c.Supervisor.Start(c.cfg); err != nil {
		return err
	}
	c.journal.Note("polling started")
	return nil
}

func (c *controller) Stop() {
	if !c.IsRunning() {
		return
	}
	c.Supervisor.Stop()
	c.journal.Note("polling stopped")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("interval") {
		cfg.Interval = runInterval
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --interval: %w", err)
		}
	}
	if askPassword, _ := cmd.Flags().GetBool("ask-password"); askPassword {
		if cfg.Password, err = promptPassword(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: "); err != nil {
			return err
		}
	}

	pollCfg, err := config.BuildPollConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to build poll config: %w", err)
	}
	loc, err := config.Location(cfg)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"hostnames", pollCfg.Hostnames.Len(),
		"interval", cfg.Interval.String(),
		"timeout", cfg.Timeout.String(),
		"credentials", pollCfg.Credentials.String(),
	)

	st := store.NewMemoryStore()
	jr, err := journal.Open(cfg.LogFile, loc, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := jr.Close(); err != nil {
			logger.Error("failed to close log file", "error", err)
		}
		if n := jr.Dropped(); n > 0 {
			logger.Warn("log lines dropped", "count", n)
		}
	}()
	pretty, _ := cmd.Flags().GetBool("pretty")

	opts := append(config.BuildOptions(cfg),
		noipupdater.WithLogger(logger),
		noipupdater.WithUserAgent("noipd/"+version),
		noipupdater.WithSink(st),
		noipupdater.WithSink(jr),
		noipupdater.WithSink(newConsoleSink(cmd.OutOrStdout(), loc, pretty)),
	)
	sup, err := noipupdater.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create supervisor: %w", err)
	}
	ctl := &controller{Supervisor: sup, cfg: pollCfg, journal: jr}

	noDashboard, _ := cmd.Flags().GetBool("no-dashboard")
	if noDashboard && cfg.StartPaused {
		return errors.New("start_paused requires the dashboard")
	}

	if cfg.StartPaused {
		logger.Info("polling paused until started from the dashboard")
	} else if err := ctl.Start(); err != nil {
		return err
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if !noDashboard {
		srv := server.NewServer(st, ctl, cfg.Port, dashboard.Assets, cfg.Title, logger)
		g.Go(func() error {
			if err := srv.Start(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return shutdown(ctl, logger)
	})

	return g.Wait()
}

// shutdown stops polling and waits for in-flight requests, giving up after
// shutdownTimeout.
func shutdown(ctl *controller, logger *slog.Logger) error {
	ctl.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := ctl.Close(ctx); err != nil {
		logger.Warn("shutdown timed out",
			"timeout", shutdownTimeout.String(),
			"live_workers", ctl.LiveWorkers(),
			"action", "forcing exit",
		)
		return nil
	}
	logger.Info("shutdown complete")
	return nil
}
