package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Updater performs one update request for one hostname.
//
// [Client] is the production implementation; tests substitute fakes.
type Updater interface {
	Update(ctx context.Context, hostname string, creds Credentials) Result
}

// EmitFunc receives every result a [Worker] produces, in cycle order.
type EmitFunc func(hostname string, result Result)

// WorkerConfig contains everything a [Worker] needs to poll one hostname.
type WorkerConfig struct {
	// Hostname is the dynamic-DNS hostname this worker keeps updated.
	Hostname string

	// Credentials are sent with every request.
	Credentials Credentials

	// Interval is the pause between the end of one cycle and the next request.
	Interval time.Duration

	// Updater performs the request.
	Updater Updater

	// Emit receives the result of every cycle.
	Emit EmitFunc

	// Logger receives panic reports.
	Logger *slog.Logger
}

// Worker owns the poll loop for exactly one hostname.
//
// Each cycle is request, emit, then wait. The loop never ends because of a
// failed request; it only ends when its context is cancelled.
type Worker struct {
	cfg WorkerConfig
}

// NewWorker creates a [Worker] for cfg.Hostname.
func NewWorker(cfg WorkerConfig) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{cfg: cfg}
}

// Hostname returns the hostname this worker polls.
func (w *Worker) Hostname() string {
	return w.cfg.Hostname
}

// Run polls until ctx is cancelled and then returns nil.
//
// Cancellation is observed before every cycle and interrupts the wait
// between cycles. A request already in flight is not aborted: it runs on a
// context detached from ctx and is bounded only by the client's timeout.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		result := w.safeUpdate(context.WithoutCancel(ctx))
		w.safeEmit(result)

		if !sleepWithContext(ctx, w.cfg.Interval) {
			return nil
		}
	}
}

// sleepWithContext waits for d and reports false if ctx ended first.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// safeUpdate calls the updater with panic recovery.
// A panic becomes a transport error carrying a correlation ID; the full stack
// is logged with the same ID.
func (w *Worker) safeUpdate(ctx context.Context) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			w.cfg.Logger.Error("updater panic",
				"correlation_id", correlationID,
				"hostname", w.cfg.Hostname,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result = Result{
				Kind:    KindTransportError,
				Message: fmt.Sprintf("internal error (correlation_id: %s)", correlationID),
			}
		}
	}()
	return w.cfg.Updater.Update(ctx, w.cfg.Hostname, w.cfg.Credentials)
}

// safeEmit delivers the result with panic recovery.
func (w *Worker) safeEmit(result Result) {
	if w.cfg.Emit == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			w.cfg.Logger.Error("outcome emit panicked",
				"correlation_id", uuid.NewString(),
				"hostname", w.cfg.Hostname,
				"panic", fmt.Sprintf("%v", r),
			)
		}
	}()
	w.cfg.Emit(w.cfg.Hostname, result)
}
