package store

import (
	"sort"
	"sync"

	"github.com/jpalmerr/noipupdater"
)

// DefaultHistorySize is the number of outcomes kept by [NewMemoryStore].
const DefaultHistorySize = 500

const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore keeps the latest outcome per hostname and a bounded ring of
// recent outcomes across all hostnames. When the ring is full the oldest
// outcome is overwritten.
//
// Subscribers receive outcomes via buffered channels (buffer size 100).
// Sends are non-blocking; if a subscriber's buffer is full, the outcome is
// dropped for that subscriber so a slow dashboard never delays a worker.
//
// MemoryStore also implements [noipupdater.OutcomeSink] and can be passed
// directly to [noipupdater.WithSink].
type MemoryStore struct {
	mu      sync.RWMutex
	latest  map[string]OutcomeRecord
	history []OutcomeRecord
	next    int // ring write position
	full    bool

	subMu       sync.RWMutex
	subscribers map[chan OutcomeRecord]struct{}
}

// NewMemoryStore creates a store retaining [DefaultHistorySize] outcomes.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreSize(DefaultHistorySize)
}

// NewMemoryStoreSize creates a store retaining up to size outcomes.
// A size below 1 is treated as 1.
func NewMemoryStoreSize(size int) *MemoryStore {
	if size < 1 {
		size = 1
	}
	return &MemoryStore{
		latest:      make(map[string]OutcomeRecord),
		history:     make([]OutcomeRecord, size),
		subscribers: make(map[chan OutcomeRecord]struct{}),
	}
}

// OnOutcome converts the outcome and records it.
func (m *MemoryStore) OnOutcome(o noipupdater.Outcome) {
	m.Record(FromOutcome(o))
}

// FromOutcome converts an engine outcome to its storage representation.
func FromOutcome(o noipupdater.Outcome) OutcomeRecord {
	return OutcomeRecord{
		Hostname:   o.Hostname,
		Generation: o.Generation,
		Kind:       o.Result.Kind.String(),
		StatusCode: o.Result.StatusCode,
		Body:       o.Result.Body,
		Message:    o.Result.Message,
		Summary:    o.Result.String(),
		LatencyMs:  o.Result.Latency.Milliseconds(),
		Timestamp:  o.Timestamp,
	}
}

// Record stores an [OutcomeRecord] and notifies all subscribers.
func (m *MemoryStore) Record(rec OutcomeRecord) {
	m.mu.Lock()
	m.latest[rec.Hostname] = rec
	m.history[m.next] = rec
	m.next = (m.next + 1) % len(m.history)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	m.notifySubscribers(rec)
}

// Latest returns a snapshot of the most recent outcome per hostname,
// sorted by hostname.
func (m *MemoryStore) Latest() []OutcomeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]OutcomeRecord, 0, len(m.latest))
	for _, rec := range m.latest {
		results = append(results, rec)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Hostname < results[j].Hostname
	})
	return results
}

// History returns up to limit recent outcomes, oldest first.
func (m *MemoryStore) History(limit int) []OutcomeRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := m.next
	start := 0
	if m.full {
		size = len(m.history)
		start = m.next
	}
	if limit > 0 && limit < size {
		start = (start + size - limit) % len(m.history)
		size = limit
	}

	results := make([]OutcomeRecord, size)
	for i := 0; i < size; i++ {
		results[i] = m.history[(start+i)%len(m.history)]
	}
	return results
}

// Subscribe creates a new subscription and returns a channel for receiving
// outcomes.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan OutcomeRecord {
	ch := make(chan OutcomeRecord, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan OutcomeRecord) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends rec to every subscriber without blocking.
func (m *MemoryStore) notifySubscribers(rec OutcomeRecord) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- rec:
		default:
			// subscriber is slow, drop the outcome
		}
	}
}
