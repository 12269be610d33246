package noipupdater

import (
	"fmt"
	"time"
)

// ResultKind classifies the result of a single update attempt.
//
// ResultKind is a string type so it serializes and logs in a human-readable
// form while keeping type safety through the defined constants.
type ResultKind string

const (
	// ResultSuccess indicates the provider answered with HTTP 200.
	ResultSuccess ResultKind = "success"

	// ResultProviderError indicates the provider answered with any other
	// status code. Authentication failures and abuse blocks land here.
	ResultProviderError ResultKind = "provider_error"

	// ResultTransportError indicates no usable HTTP response was received
	// (DNS failure, connection refused, TLS failure, timeout).
	ResultTransportError ResultKind = "transport_error"
)

// String returns the string representation of the kind.
func (k ResultKind) String() string {
	return string(k)
}

// Result is the classified result of one update request.
//
// Only the fields relevant to Kind are set:
//   - [ResultSuccess]: StatusCode (200) and Body
//   - [ResultProviderError]: StatusCode and Body
//   - [ResultTransportError]: Message
type Result struct {
	// Kind is the classification of the attempt.
	Kind ResultKind

	// StatusCode is the HTTP status code returned by the provider.
	// Zero for transport errors.
	StatusCode int

	// Body is the provider's response body, verbatim.
	Body string

	// Message describes a transport error.
	Message string

	// Latency is the time taken by the request.
	Latency time.Duration
}

// OK reports whether the attempt was a success.
func (r Result) OK() bool {
	return r.Kind == ResultSuccess
}

// String renders the result as a single human-readable log line.
func (r Result) String() string {
	switch r.Kind {
	case ResultSuccess:
		return fmt.Sprintf("update succeeded: %s", r.Body)
	case ResultProviderError:
		return fmt.Sprintf("update failed, status code: %d, response: %s", r.StatusCode, r.Body)
	default:
		return fmt.Sprintf("update error: %s", r.Message)
	}
}

// Outcome is the timestamped result of one update attempt for one hostname.
//
// Outcome is immutable after creation. Timestamp is taken when the outcome is
// emitted, after the request has completed.
type Outcome struct {
	// Hostname is the hostname the attempt was made for.
	Hostname string

	// Generation identifies the Start call whose worker produced the outcome.
	Generation string

	// Timestamp is when the outcome was emitted.
	Timestamp time.Time

	// Result is the classified result of the attempt.
	Result Result
}

// OutcomeSink receives every [Outcome] produced by a [Supervisor].
//
// OnOutcome is called concurrently from every worker goroutine and must be
// safe for concurrent use. It should return quickly: a slow sink delays the
// next cycle of the calling hostname (never other hostnames). Sinks that do
// I/O should enqueue and return.
type OutcomeSink interface {
	OnOutcome(Outcome)
}

// SinkFunc adapts an ordinary function to the [OutcomeSink] interface.
type SinkFunc func(Outcome)

// OnOutcome calls f(o).
func (f SinkFunc) OnOutcome(o Outcome) {
	f(o)
}

// RunState is the lifecycle state of a [Supervisor].
type RunState int

const (
	// Stopped means no worker generation is active.
	Stopped RunState = iota

	// Running means a worker generation is active.
	Running
)

// String returns "stopped" or "running".
func (s RunState) String() string {
	if s == Running {
		return "running"
	}
	return "stopped"
}
