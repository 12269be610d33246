package noipupdater

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/noipupdater/internal/poller"
)

const (
	// DefaultUpdateURL is the provider's fixed update endpoint.
	DefaultUpdateURL = poller.DefaultUpdateURL

	// DefaultRequestTimeout bounds every update request.
	DefaultRequestTimeout = poller.DefaultTimeout

	defaultUserAgent = "noipupdater/dev"
)

// Supervisor runs one update worker per hostname and controls them as a unit.
//
// A Supervisor is created with [New] and driven with [Supervisor.Start] and
// [Supervisor.Stop]. Each Start spawns a new worker generation, tagged with a
// unique ID, whose workers share one cancellation signal. Stop cancels that
// signal and returns immediately; workers finish their in-flight request,
// emit its outcome and exit on their own.
//
// The typical lifecycle is:
//
//	sup, err := noipupdater.New(noipupdater.WithOutcomeCallback(onOutcome))
//	if err != nil {
//	    return err
//	}
//
//	if err := sup.Start(cfg); err != nil {
//	    return err // configuration error, nothing started
//	}
//	...
//	sup.Stop()
//	_ = sup.Wait(ctx) // optional: wait for workers before exiting
//
// All methods are safe for concurrent use.
type Supervisor struct {
	client *poller.Client
	sinks  []OutcomeSink
	logger *slog.Logger

	mu          sync.Mutex
	current     *generation
	generations []*generation // started and not yet drained, current included

	live atomic.Int64
}

// generation is the set of workers spawned by one Start call.
type generation struct {
	id        string
	hostnames []string
	cancel    context.CancelFunc
	done      chan struct{}
}

// New creates a [Supervisor] with the given options.
//
// Defaults:
//   - Update URL: [DefaultUpdateURL]
//   - Request timeout: [DefaultRequestTimeout]
//   - Logger: [slog.Default]
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*Supervisor, error) {
	cfg := &supervisorConfig{
		updateURL:      DefaultUpdateURL,
		requestTimeout: DefaultRequestTimeout,
		userAgent:      defaultUserAgent,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		client: poller.NewClient(cfg.updateURL, cfg.requestTimeout, cfg.userAgent),
		sinks:  cfg.sinks,
		logger: logger,
	}, nil
}

// Start validates cfg and starts one worker per hostname.
//
// Returns [ErrEmptyCredentials], [ErrEmptyHostnameSet] or [ErrInvalidInterval]
// without changing state when cfg cannot be polled. If the Supervisor is
// already running, Start is a no-op and returns nil: a second generation is
// never started on top of the first. Use [Supervisor.IsRunning] to observe
// the state.
//
// Start does not block. The first update for every hostname is issued
// immediately.
func (s *Supervisor) Start(cfg PollConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	gen := &generation{
		id:        uuid.NewString(),
		hostnames: cfg.Hostnames.Hostnames(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	creds := poller.Credentials{
		Username: cfg.Credentials.Username,
		Password: cfg.Credentials.Password,
	}
	logger := s.logger.With("generation", gen.id)

	var g errgroup.Group
	for _, hostname := range gen.hostnames {
		w := poller.NewWorker(poller.WorkerConfig{
			Hostname:    hostname,
			Credentials: creds,
			Interval:    cfg.Interval,
			Updater:     s.client,
			Emit:        s.emitter(gen.id),
			Logger:      logger,
		})
		s.live.Add(1)
		g.Go(func() error {
			defer s.live.Add(-1)
			return w.Run(ctx)
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			logger.Error("worker generation ended with error", "error", err)
		}
		close(gen.done)
		logger.Debug("worker generation drained")
	}()

	s.current = gen
	s.generations = append(s.pruneDrained(), gen)

	s.logger.Info("polling started",
		"generation", gen.id,
		"hostnames", len(gen.hostnames),
		"interval", cfg.Interval.String(),
	)
	return nil
}

// Stop signals the running workers to stop and returns immediately.
//
// Workers that are waiting for their next cycle exit at once; workers with a
// request in flight let it complete, emit its outcome, and then exit. No
// worker of the stopped generation starts another request. Calling Stop
// while stopped is a no-op.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}
	s.current.cancel()
	s.logger.Info("polling stopped", "generation", s.current.id)
	s.current = nil
}

// IsRunning reports whether a worker generation is active.
func (s *Supervisor) IsRunning() bool {
	return s.State() == Running
}

// State returns the current [RunState].
func (s *Supervisor) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return Running
	}
	return Stopped
}

// Generation returns the ID of the active worker generation, or "" when
// stopped.
func (s *Supervisor) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.id
}

// Hostnames returns the hostnames of the active generation, or nil when
// stopped.
func (s *Supervisor) Hostnames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return append([]string(nil), s.current.hostnames...)
}

// LiveWorkers returns the number of worker goroutines that have not exited,
// across all generations. After Stop it drops to zero once in-flight
// requests complete.
func (s *Supervisor) LiveWorkers() int {
	return int(s.live.Load())
}

// Wait blocks until every worker of every generation started so far has
// exited, or ctx is done. It does not stop anything by itself; call
// [Supervisor.Stop] first.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	pending := append([]*generation(nil), s.generations...)
	s.mu.Unlock()

	for _, gen := range pending {
		select {
		case <-gen.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops polling and releases idle connections once all workers have
// exited or ctx is done.
func (s *Supervisor) Close(ctx context.Context) error {
	s.Stop()
	err := s.Wait(ctx)
	s.client.Close()
	return err
}

// pruneDrained returns the tracked generations that still have live workers.
// Caller must hold s.mu.
func (s *Supervisor) pruneDrained() []*generation {
	kept := s.generations[:0]
	for _, gen := range s.generations {
		select {
		case <-gen.done:
		default:
			kept = append(kept, gen)
		}
	}
	return kept
}

// emitter returns the worker callback that timestamps results and fans them
// out to the registered sinks.
func (s *Supervisor) emitter(generationID string) poller.EmitFunc {
	return func(hostname string, r poller.Result) {
		outcome := Outcome{
			Hostname:   hostname,
			Generation: generationID,
			Timestamp:  time.Now(),
			Result:     toResult(r),
		}
		for _, sink := range s.sinks {
			deliverSafe(sink, outcome, s.logger)
		}
	}
}

// toResult converts the internal poller result to the public type.
func toResult(r poller.Result) Result {
	result := Result{
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Message:    r.Message,
		Latency:    r.Latency,
	}
	switch r.Kind {
	case poller.KindSuccess:
		result.Kind = ResultSuccess
	case poller.KindProviderError:
		result.Kind = ResultProviderError
	default:
		result.Kind = ResultTransportError
	}
	return result
}

// deliverSafe calls a sink with panic recovery.
// Panics are logged but do not propagate.
func deliverSafe(sink OutcomeSink, outcome Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome sink panicked",
				"panic", r,
				"hostname", outcome.Hostname,
			)
		}
	}()
	sink.OnOutcome(outcome)
}
