package noipupdater

import (
	"errors"
	"log/slog"
	"net/url"
	"time"
)

// supervisorConfig holds mutable state during Supervisor construction.
type supervisorConfig struct {
	logger         *slog.Logger
	sinks          []OutcomeSink
	updateURL      string
	requestTimeout time.Duration
	userAgent      string
}

// Option is a function that configures a [Supervisor] during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
//
// Built-in options: [WithLogger], [WithSink], [WithOutcomeCallback],
// [WithUpdateURL], [WithRequestTimeout], [WithUserAgent].
type Option func(*supervisorConfig) error

// WithLogger sets a custom [slog.Logger] for the Supervisor.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *supervisorConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithSink registers an [OutcomeSink] that receives every outcome.
//
// Multiple sinks may be registered; each outcome is delivered to them in
// registration order from the goroutine of the hostname that produced it.
// Panics within sinks are recovered and logged.
//
// Returns an error if the sink is nil.
func WithSink(sink OutcomeSink) Option {
	return func(cfg *supervisorConfig) error {
		if sink == nil {
			return errors.New("sink cannot be nil")
		}
		cfg.sinks = append(cfg.sinks, sink)
		return nil
	}
}

// WithOutcomeCallback registers a function to be called with every outcome.
//
// It is shorthand for WithSink(SinkFunc(cb)). The callback is invoked
// concurrently from all hostname workers and must be safe for concurrent use.
//
// Example:
//
//	sup, err := noipupdater.New(
//	    noipupdater.WithOutcomeCallback(func(o noipupdater.Outcome) {
//	        if !o.Result.OK() {
//	            log.Printf("%s: %s", o.Hostname, o.Result)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithOutcomeCallback(cb func(Outcome)) Option {
	return func(cfg *supervisorConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.sinks = append(cfg.sinks, SinkFunc(cb))
		return nil
	}
}

// WithUpdateURL overrides the provider update endpoint.
//
// The default is [DefaultUpdateURL]. Overriding is meant for tests and local
// mock providers; the request protocol does not change.
//
// Returns an error if the URL is not an absolute http or https URL.
func WithUpdateURL(rawURL string) Option {
	return func(cfg *supervisorConfig) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("invalid update URL: " + err.Error())
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return errors.New("update URL must have a scheme (http:// or https://)")
		}
		if u.Host == "" {
			return errors.New("update URL must have a host")
		}
		cfg.updateURL = rawURL
		return nil
	}
}

// WithRequestTimeout sets the per-request timeout.
//
// Defaults to [DefaultRequestTimeout] (10 seconds).
//
// Returns an error if the duration is zero or negative.
func WithRequestTimeout(d time.Duration) Option {
	return func(cfg *supervisorConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent with update requests.
//
// Dynamic-DNS providers ask clients to identify themselves; the default is
// "noipupdater/dev".
func WithUserAgent(userAgent string) Option {
	return func(cfg *supervisorConfig) error {
		if userAgent == "" {
			return errors.New("user agent cannot be empty")
		}
		cfg.userAgent = userAgent
		return nil
	}
}
