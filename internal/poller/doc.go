// Package poller provides the per-hostname update loop for noipupdater.
//
// This package is internal to noipupdater and handles the periodic update
// requests sent to the dynamic-DNS provider. Every hostname gets its own
// [Worker] goroutine so a slow or failing hostname never delays another.
//
// The main components are:
//
//   - [Client]: HTTP client that performs one authenticated update request
//   - [Worker]: request-emit-wait loop for a single hostname
//   - [Result]: classified outcome of a single request
//
// Users of the noipupdater library should not need to interact with this
// package directly. Polling is driven by noipupdater.Supervisor.
package poller
