// Example program embedding the polling engine as a library.
//
// It starts a local mock provider and keeps three hostnames updated against
// it: one that succeeds, one the provider does not know, and one that always
// times out. Outcomes are printed as they arrive.
//
//	go run ./example
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/noipupdater"
	"github.com/jpalmerr/noipupdater/internal/mockprovider"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	provider := mockprovider.New("demo", "demo", logger, "home.ddns.net")
	provider.SlowDelay = time.Minute

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		slog.Error("failed to listen", "error", err)
		os.Exit(1)
	}
	go func() { _ = http.Serve(ln, provider.Handler()) }()

	sup, err := noipupdater.New(
		noipupdater.WithUpdateURL("http://"+ln.Addr().String()+mockprovider.UpdatePath),
		noipupdater.WithRequestTimeout(2*time.Second),
		noipupdater.WithLogger(logger),
		noipupdater.WithOutcomeCallback(func(o noipupdater.Outcome) {
			fmt.Printf("%s  %-18s %s\n", o.Timestamp.Format(time.TimeOnly), o.Hostname, o.Result)
		}),
	)
	if err != nil {
		slog.Error("failed to create supervisor", "error", err)
		os.Exit(1)
	}

	hosts := noipupdater.MustHostnameSet("home.ddns.net", "unknown.ddns.net", "slow-nas.ddns.net")
	err = sup.Start(noipupdater.PollConfig{
		Credentials: noipupdater.Credentials{Username: "demo", Password: "demo"},
		Interval:    5 * time.Second,
		Hostnames:   hosts,
	})
	if err != nil {
		slog.Error("failed to start polling", "error", err)
		os.Exit(1)
	}

	fmt.Println("Polling 3 hostnames every 5s against a local mock provider. Press Ctrl+C to stop.")

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sup.Close(shutdownCtx); err != nil {
		slog.Warn("workers still running at exit", "live_workers", sup.LiveWorkers())
	}
}
