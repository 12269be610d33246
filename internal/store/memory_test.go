package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/noipupdater"
)

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() = nil")
	}

	// should start empty
	if len(store.Latest()) != 0 {
		t.Errorf("Latest() = %v items, want 0", len(store.Latest()))
	}
	if len(store.History(0)) != 0 {
		t.Errorf("History(0) = %v items, want 0", len(store.History(0)))
	}
}

func TestMemoryStore_RecordReplacesLatest(t *testing.T) {
	store := NewMemoryStore()

	store.Record(OutcomeRecord{Hostname: "a.ddns.net", Kind: "success"})
	store.Record(OutcomeRecord{Hostname: "a.ddns.net", Kind: "provider_error", StatusCode: 401})

	latest := store.Latest()
	if len(latest) != 1 {
		t.Fatalf("Latest() = %v items, want 1", len(latest))
	}
	if latest[0].Kind != "provider_error" {
		t.Errorf("Latest()[0].Kind = %v, want %v", latest[0].Kind, "provider_error")
	}

	// history keeps both
	if got := len(store.History(0)); got != 2 {
		t.Errorf("History(0) = %v items, want 2", got)
	}
}

func TestMemoryStore_LatestSortedByHostname(t *testing.T) {
	store := NewMemoryStore()

	store.Record(OutcomeRecord{Hostname: "c.ddns.net"})
	store.Record(OutcomeRecord{Hostname: "a.ddns.net"})
	store.Record(OutcomeRecord{Hostname: "b.ddns.net"})

	latest := store.Latest()
	want := []string{"a.ddns.net", "b.ddns.net", "c.ddns.net"}
	for i, rec := range latest {
		if rec.Hostname != want[i] {
			t.Errorf("Latest()[%d].Hostname = %v, want %v", i, rec.Hostname, want[i])
		}
	}
}

func TestMemoryStore_History(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		recorded int
		limit    int
		want     []int // expected status codes, oldest first
	}{
		{name: "partial fill, all", size: 5, recorded: 3, limit: 0, want: []int{0, 1, 2}},
		{name: "partial fill, limited", size: 5, recorded: 3, limit: 2, want: []int{1, 2}},
		{name: "exactly full", size: 3, recorded: 3, limit: 0, want: []int{0, 1, 2}},
		{name: "wrapped, all", size: 3, recorded: 5, limit: 0, want: []int{2, 3, 4}},
		{name: "wrapped, limited", size: 3, recorded: 5, limit: 2, want: []int{3, 4}},
		{name: "limit above size", size: 3, recorded: 5, limit: 10, want: []int{2, 3, 4}},
		{name: "size floor", size: 0, recorded: 2, limit: 0, want: []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStoreSize(tt.size)
			for i := 0; i < tt.recorded; i++ {
				store.Record(OutcomeRecord{Hostname: "a.ddns.net", StatusCode: i})
			}

			got := store.History(tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("History(%d) = %v items, want %v", tt.limit, len(got), len(tt.want))
			}
			for i := range got {
				if got[i].StatusCode != tt.want[i] {
					t.Errorf("History(%d)[%d].StatusCode = %v, want %v", tt.limit, i, got[i].StatusCode, tt.want[i])
				}
			}
		})
	}
}

func TestMemoryStore_OnOutcome(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	var sink noipupdater.OutcomeSink = store
	sink.OnOutcome(noipupdater.Outcome{
		Hostname:   "a.ddns.net",
		Generation: "gen-1",
		Timestamp:  now,
		Result: noipupdater.Result{
			Kind:       noipupdater.ResultProviderError,
			StatusCode: 401,
			Body:       "badauth",
			Latency:    120 * time.Millisecond,
		},
	})

	latest := store.Latest()
	if len(latest) != 1 {
		t.Fatalf("Latest() = %v items, want 1", len(latest))
	}
	rec := latest[0]
	if rec.Kind != "provider_error" {
		t.Errorf("Kind = %v, want %v", rec.Kind, "provider_error")
	}
	if rec.Summary != "update failed, status code: 401, response: badauth" {
		t.Errorf("Summary = %q", rec.Summary)
	}
	if rec.LatencyMs != 120 {
		t.Errorf("LatencyMs = %v, want 120", rec.LatencyMs)
	}
	if rec.Generation != "gen-1" || !rec.Timestamp.Equal(now) {
		t.Errorf("Generation/Timestamp not carried over: %+v", rec)
	}
}

func TestMemoryStore_Subscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	if ch == nil {
		t.Fatal("Subscribe() = nil")
	}

	go func() {
		store.Record(OutcomeRecord{Hostname: "a.ddns.net"})
	}()

	select {
	case rec := <-ch:
		if rec.Hostname != "a.ddns.net" {
			t.Errorf("received Hostname = %v, want %v", rec.Hostname, "a.ddns.net")
		}
	case <-time.After(1 * time.Second):
		t.Error("Subscribe() channel did not receive outcome")
	}
}

func TestMemoryStore_MultipleSubscribers(t *testing.T) {
	store := NewMemoryStore()

	ch1 := store.Subscribe()
	ch2 := store.Subscribe()
	ch3 := store.Subscribe()

	// record should fanout to all subscribers
	go func() {
		store.Record(OutcomeRecord{Hostname: "a.ddns.net"})
	}()

	received := 0
	timeout := time.After(1 * time.Second)

	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("Only received %d/3 outcomes", received)
		}
	}
}

func TestMemoryStore_Unsubscribe(t *testing.T) {
	store := NewMemoryStore()

	ch := store.Subscribe()
	store.Unsubscribe(ch)
	store.Unsubscribe(ch) // second call is a no-op

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Unsubscribe() channel should be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Unsubscribe() channel should be closed immediately")
	}
}

func TestMemoryStore_SlowSubscriberDoesNotBlock(t *testing.T) {
	store := NewMemoryStore()

	// create a subscriber but don't read from it
	_ = store.Subscribe()

	done := make(chan bool)
	go func() {
		for i := 0; i < 2*subscriberBuffer; i++ {
			store.Record(OutcomeRecord{Hostname: "a.ddns.net"})
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Record() blocked on slow subscriber")
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStoreSize(50)

	var wg sync.WaitGroup
	numGoroutines := 10
	numRecords := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numRecords; j++ {
				store.Record(OutcomeRecord{Hostname: fmt.Sprintf("host-%d.ddns.net", id)})
			}
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numRecords; j++ {
				_ = store.Latest()
				_ = store.History(10)
			}
		}()
	}

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := store.Subscribe()
			time.Sleep(10 * time.Millisecond)
			store.Unsubscribe(ch)
		}()
	}

	wg.Wait()

	if got := len(store.Latest()); got != numGoroutines {
		t.Errorf("Latest() = %v items, want %v", got, numGoroutines)
	}
	if got := len(store.History(0)); got != 50 {
		t.Errorf("History(0) = %v items, want 50", got)
	}
}
