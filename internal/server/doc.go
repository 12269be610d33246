// Package server provides the HTTP server for the dashboard and its API.
//
// The server handles all HTTP concerns:
//
//   - Dashboard serving: the embedded HTML page at "/"
//   - REST API: "/api/status" (latest outcome per hostname), "/api/log"
//     (recent outcomes) and "/api/state"
//   - Control: "POST /api/start" and "POST /api/stop" through a [Controller]
//   - Server-Sent Events: new outcomes at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
