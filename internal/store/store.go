package store

import "time"

// OutcomeRecord is the storage representation of one update outcome.
//
// OutcomeRecord is optimized for JSON serialization (used by the REST API and
// SSE). It is decoupled from the engine's public types so the wire format can
// evolve independently.
type OutcomeRecord struct {
	// Hostname is the hostname the update was sent for.
	Hostname string `json:"hostname"`

	// Generation is the worker generation that produced the outcome.
	Generation string `json:"generation"`

	// Kind is "success", "provider_error" or "transport_error".
	Kind string `json:"kind"`

	// StatusCode is the provider's HTTP status, 0 for transport errors.
	StatusCode int `json:"status_code"`

	// Body is the provider's response body, verbatim.
	Body string `json:"body"`

	// Message describes a transport error.
	Message string `json:"message,omitempty"`

	// Summary is the human-readable log line for the outcome.
	Summary string `json:"summary"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// Timestamp is when the outcome was emitted.
	Timestamp time.Time `json:"timestamp"`
}

// Store defines the interface for storing and subscribing to outcomes.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism allows outcomes to be pushed to connected clients as they happen
// (e.g., via Server-Sent Events).
type Store interface {
	// Record stores an outcome and notifies all subscribers.
	// It replaces the latest outcome for the hostname and appends to history.
	Record(rec OutcomeRecord)

	// Latest returns the most recent outcome of every hostname, sorted by
	// hostname. The returned slice is a snapshot.
	Latest() []OutcomeRecord

	// History returns up to limit of the most recent outcomes, oldest first.
	// A limit of zero or less returns the whole retained history.
	History(limit int) []OutcomeRecord

	// Subscribe returns a channel that receives new outcomes.
	// The returned channel has a buffer; slow consumers may miss outcomes.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan OutcomeRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan OutcomeRecord)
}
