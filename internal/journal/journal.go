package journal

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/noipupdater"
)

const (
	// DefaultQueueSize is the number of lines buffered before Record drops.
	DefaultQueueSize = 1024

	// TimeLayout is the timestamp layout of journal lines. The zone
	// abbreviation follows the configured location (e.g. PST or PDT).
	TimeLayout = "2006-01-02 15:04:05 MST"
)

// Journal appends one human-readable line per outcome to a writer.
//
// Lines are queued and written by a single goroutine so that [Journal.Record]
// never blocks a hostname worker on disk I/O. When the queue is full the line
// is dropped and counted; see [Journal.Dropped].
//
// Journal implements [noipupdater.OutcomeSink].
type Journal struct {
	out    io.Writer
	closer io.Closer
	loc    *time.Location
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan string
	done   chan struct{}

	dropped atomic.Int64
}

// Open opens (or creates) the file at path for appending and starts a
// journal writing to it. Timestamps are rendered in loc; nil means UTC.
func Open(path string, loc *time.Location, logger *slog.Logger) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := New(f, loc, logger, DefaultQueueSize)
	j.closer = f
	return j, nil
}

// New starts a journal writing to w with a queue of queueSize lines.
// The caller keeps ownership of w.
func New(w io.Writer, loc *time.Location, logger *slog.Logger, queueSize int) *Journal {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize < 1 {
		queueSize = 1
	}
	j := &Journal{
		out:    w,
		loc:    loc,
		logger: logger,
		queue:  make(chan string, queueSize),
		done:   make(chan struct{}),
	}
	go j.run()
	return j
}

// OnOutcome records the outcome.
func (j *Journal) OnOutcome(o noipupdater.Outcome) {
	j.Record(o)
}

// Record queues the journal line for o. It never blocks.
func (j *Journal) Record(o noipupdater.Outcome) {
	j.enqueue(FormatOutcome(o, j.loc))
}

// Note queues a free-form line, such as a start or stop notice.
func (j *Journal) Note(message string) {
	j.enqueue(FormatLine(time.Now(), j.loc, "", message))
}

// Dropped returns the number of lines discarded because the queue was full
// or the journal was closed.
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// Close flushes every queued line, stops the writer and closes the file if
// the journal owns one. Later calls are no-ops.
func (j *Journal) Close() error {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return nil
	}
	j.closed = true
	close(j.queue)
	j.mu.Unlock()

	<-j.done
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

func (j *Journal) enqueue(line string) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		j.dropped.Add(1)
		return
	}
	select {
	case j.queue <- line:
	default:
		j.dropped.Add(1)
	}
}

// run drains the queue, flushing whenever it empties.
func (j *Journal) run() {
	defer close(j.done)

	w := bufio.NewWriter(j.out)
	for line := range j.queue {
		if _, err := w.WriteString(line + "\n"); err != nil {
			j.logger.Error("journal write failed", "error", err)
			continue
		}
		if len(j.queue) == 0 {
			if err := w.Flush(); err != nil {
				j.logger.Error("journal flush failed", "error", err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		j.logger.Error("journal flush failed", "error", err)
	}
}

// FormatOutcome renders o as a journal line in loc.
func FormatOutcome(o noipupdater.Outcome, loc *time.Location) string {
	return FormatLine(o.Timestamp, loc, o.Hostname, o.Result.String())
}

// FormatLine renders "[timestamp] [hostname] message". The hostname bracket
// is omitted when hostname is empty.
func FormatLine(at time.Time, loc *time.Location, hostname, message string) string {
	if loc == nil {
		loc = time.UTC
	}
	stamp := at.In(loc).Format(TimeLayout)
	if hostname == "" {
		return fmt.Sprintf("[%s] %s", stamp, message)
	}
	return fmt.Sprintf("[%s] [%s] %s", stamp, hostname, message)
}
