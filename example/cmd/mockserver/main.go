// Standalone mock No-IP provider for trying the CLI locally.
//
// Usage:
//
//	go run ./example/cmd/mockserver -user demo -password demo home.ddns.net
//
// Then in another terminal:
//
//	go run ./cmd/noipd run -c example/noipd.yaml
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jpalmerr/noipupdater/internal/mockprovider"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	user := flag.String("user", "demo", "accepted username")
	password := flag.String("password", "demo", "accepted password")
	slow := flag.Duration("slow", 30*time.Second, "delay for slow- hostnames")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	provider := mockprovider.New(*user, *password, logger, flag.Args()...)
	provider.SlowDelay = *slow

	fmt.Printf("Mock provider listening on %s%s\n", *addr, mockprovider.UpdatePath)
	fmt.Println("Hostnames starting with fail- answer 911, slow- answer late")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	server := &http.Server{
		Addr:              *addr,
		Handler:           provider.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
