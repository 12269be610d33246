// Package noipupdater keeps a set of dynamic-DNS hostnames pointed at the
// caller's current address by periodically sending authenticated update
// requests to the No-IP update endpoint.
//
// The package is the polling engine. It runs one independent worker per
// hostname, each on its own goroutine, so a slow or failing hostname never
// delays another. Every attempt produces an [Outcome] that is delivered to
// the registered [OutcomeSink] values.
//
// # Quick Start
//
//	hosts, _ := noipupdater.NewHostnameSet("home.ddns.net", "nas.ddns.net")
//	sup, _ := noipupdater.New(
//	    noipupdater.WithOutcomeCallback(func(o noipupdater.Outcome) {
//	        fmt.Println(o.Hostname, o.Result)
//	    }),
//	)
//
//	err := sup.Start(noipupdater.PollConfig{
//	    Credentials: noipupdater.Credentials{Username: "me", Password: "secret"},
//	    Interval:    5 * time.Minute,
//	    Hostnames:   hosts,
//	})
//	if err != nil {
//	    // ErrEmptyCredentials, ErrEmptyHostnameSet or ErrInvalidInterval
//	}
//	...
//	sup.Stop()
//
// # Outcomes
//
// Each update attempt is classified as one of:
//
//   - [ResultSuccess]: the provider answered HTTP 200; Body holds its answer
//   - [ResultProviderError]: any other status; StatusCode and Body are kept verbatim
//   - [ResultTransportError]: DNS, connect, TLS or timeout failure; Message describes it
//
// No outcome ever stops a worker. Failed attempts are simply retried at the
// next interval.
//
// # Lifecycle
//
// [Supervisor.Start] is idempotent while running. [Supervisor.Stop] returns
// immediately; workers finish any in-flight request and exit. Every Start
// creates a new worker generation whose ID is stamped on its outcomes.
//
// # Architecture
//
// The module consists of several packages:
//
//   - internal/poller: update client and per-hostname worker loop
//   - internal/store: in-memory latest-outcome store and history with pub/sub
//   - internal/journal: asynchronous outcome log file writer
//   - internal/server: dashboard HTTP server with REST API and Server-Sent Events
//   - config: YAML configuration loading and persistence
//   - cmd/noipd: command line interface
package noipupdater
