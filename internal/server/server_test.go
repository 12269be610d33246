package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/noipupdater/internal/store"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockController implements Controller for testing.
type mockController struct {
	mu       sync.Mutex
	running  bool
	startErr error
	starts   atomic.Int32
	stops    atomic.Int32
}

func (c *mockController) Start() error {
	c.starts.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.running = true
	return nil
}

func (c *mockController) Stop() {
	c.stops.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

func (c *mockController) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *mockController) Generation() string {
	if c.IsRunning() {
		return "gen-1"
	}
	return ""
}

func (c *mockController) LiveWorkers() int {
	if c.IsRunning() {
		return 2
	}
	return 0
}

func newTestServer(ctl Controller) (*Server, *store.MemoryStore) {
	st := store.NewMemoryStore()
	return NewServer(st, ctl, 0, nil, "", testLogger()), st
}

func doRequest(srv *Server, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// --- API Tests ---

func TestHandleStatus(t *testing.T) {
	srv, st := newTestServer(nil)
	st.Record(store.OutcomeRecord{Hostname: "b.ddns.net", Kind: "success"})
	st.Record(store.OutcomeRecord{Hostname: "a.ddns.net", Kind: "provider_error", StatusCode: 401})
	st.Record(store.OutcomeRecord{Hostname: "a.ddns.net", Kind: "success", StatusCode: 200})

	rec := doRequest(srv, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var got []store.OutcomeRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Hostname != "a.ddns.net" || got[0].Kind != "success" {
		t.Errorf("got[0] = %+v, want latest a.ddns.net success", got[0])
	}
}

func TestHandleStatus_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(nil)
	rec := doRequest(srv, http.MethodPost, "/api/status")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleLog(t *testing.T) {
	srv, st := newTestServer(nil)
	for i := 0; i < 5; i++ {
		st.Record(store.OutcomeRecord{Hostname: "a.ddns.net", StatusCode: i})
	}

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantLen  int
	}{
		{name: "default limit", target: "/api/log", wantCode: http.StatusOK, wantLen: 5},
		{name: "limit", target: "/api/log?limit=2", wantCode: http.StatusOK, wantLen: 2},
		{name: "zero is everything", target: "/api/log?limit=0", wantCode: http.StatusOK, wantLen: 5},
		{name: "negative", target: "/api/log?limit=-1", wantCode: http.StatusBadRequest},
		{name: "not a number", target: "/api/log?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(srv, http.MethodGet, tt.target)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			var got []store.OutcomeRecord
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to parse JSON: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("got %d records, want %d", len(got), tt.wantLen)
			}
			// newest entry is always last
			if got[len(got)-1].StatusCode != 4 {
				t.Errorf("last record StatusCode = %d, want 4", got[len(got)-1].StatusCode)
			}
		})
	}
}

func TestHandleStartStop(t *testing.T) {
	ctl := &mockController{}
	srv, _ := newTestServer(ctl)

	rec := doRequest(srv, http.MethodPost, "/api/start")
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want %d", rec.Code, http.StatusOK)
	}
	var state State
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !state.Running || state.Generation != "gen-1" || state.LiveWorkers != 2 {
		t.Errorf("state after start = %+v", state)
	}

	rec = doRequest(srv, http.MethodGet, "/api/state")
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !state.Running {
		t.Error("/api/state running = false after start, want true")
	}

	rec = doRequest(srv, http.MethodPost, "/api/stop")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d, want %d", rec.Code, http.StatusOK)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if state.Running || state.Generation != "" {
		t.Errorf("state after stop = %+v, want stopped", state)
	}

	// stopping again is fine
	if rec := doRequest(srv, http.MethodPost, "/api/stop"); rec.Code != http.StatusOK {
		t.Errorf("second stop status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ctl.starts.Load() != 1 || ctl.stops.Load() != 2 {
		t.Errorf("starts = %d, stops = %d, want 1 and 2", ctl.starts.Load(), ctl.stops.Load())
	}
}

func TestHandleStart_ConfigError(t *testing.T) {
	ctl := &mockController{startErr: errors.New("start: username and password are required")}
	srv, _ := newTestServer(ctl)

	rec := doRequest(srv, http.MethodPost, "/api/start")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}

	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if !strings.Contains(body.Error, "username and password are required") {
		t.Errorf("error = %q", body.Error)
	}
	if ctl.IsRunning() {
		t.Error("controller running after rejected start")
	}
}

func TestHandleControl_Errors(t *testing.T) {
	tests := []struct {
		name     string
		ctl      Controller
		method   string
		target   string
		wantCode int
	}{
		{"start with GET", &mockController{}, http.MethodGet, "/api/start", http.StatusMethodNotAllowed},
		{"stop with GET", &mockController{}, http.MethodGet, "/api/stop", http.StatusMethodNotAllowed},
		{"state with POST", &mockController{}, http.MethodPost, "/api/state", http.StatusMethodNotAllowed},
		{"start without controller", nil, http.MethodPost, "/api/start", http.StatusServiceUnavailable},
		{"stop without controller", nil, http.MethodPost, "/api/stop", http.StatusServiceUnavailable},
		{"state without controller", nil, http.MethodGet, "/api/state", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(tt.ctl)
			rec := doRequest(srv, tt.method, tt.target)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

// --- SSE Tests ---

func TestHandleSSE_ReplaysLatest(t *testing.T) {
	srv, st := newTestServer(nil)
	st.Record(store.OutcomeRecord{Hostname: "a.ddns.net", Kind: "success"})
	st.Record(store.OutcomeRecord{Hostname: "b.ddns.net", Kind: "transport_error"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %s", len(events), rec.Body.String())
	}
	if events[0].Hostname != "a.ddns.net" || events[1].Hostname != "b.ddns.net" {
		t.Errorf("events = %+v, want a then b", events)
	}
}

func TestHandleSSE_StreamsOutcomes(t *testing.T) {
	srv, st := newTestServer(nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		srv.handleSSE(rec, req)
		close(done)
	}()

	// give handler time to subscribe
	time.Sleep(50 * time.Millisecond)
	st.Record(store.OutcomeRecord{Hostname: "new.ddns.net", Kind: "success", Body: "good 1.2.3.4"})
	time.Sleep(50 * time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("handler did not exit after context cancellation")
	}

	events := parseSSEEvents(rec.Body.String())
	if len(events) != 1 || events[0].Body != "good 1.2.3.4" {
		t.Errorf("events = %+v, want the streamed outcome", events)
	}
}

func TestHandleSSE_Headers(t *testing.T) {
	srv, _ := newTestServer(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	srv.handleSSE(rec, req)

	expectedHeaders := map[string]string{
		"Content-Type":                "text/event-stream",
		"Cache-Control":               "no-cache",
		"Connection":                  "keep-alive",
		"Access-Control-Allow-Origin": "*",
	}
	for key, expected := range expectedHeaders {
		if got := rec.Header().Get(key); got != expected {
			t.Errorf("header %s = %q, want %q", key, got, expected)
		}
	}
}

func TestHandleSSE_SSENotSupported(t *testing.T) {
	srv, _ := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/sse", nil)
	w := &nonFlushWriter{header: make(http.Header)}

	srv.handleSSE(w, req)

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.statusCode)
	}
}

type nonFlushWriter struct {
	header     http.Header
	statusCode int
	body       []byte
}

func (n *nonFlushWriter) Header() http.Header {
	return n.header
}

func (n *nonFlushWriter) Write(b []byte) (int, error) {
	n.body = append(n.body, b...)
	return len(b), nil
}

func (n *nonFlushWriter) WriteHeader(statusCode int) {
	n.statusCode = statusCode
}

func TestHandleSSE_NoGoroutineLeaks(t *testing.T) {
	runtime.GC()
	time.Sleep(100 * time.Millisecond)
	before := runtime.NumGoroutine()

	srv, _ := newTestServer(nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			req := httptest.NewRequest(http.MethodGet, "/api/sse", nil).WithContext(ctx)
			srv.handleSSE(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	runtime.GC()
	time.Sleep(200 * time.Millisecond)

	after := runtime.NumGoroutine()
	if after > before+2 { // small tolerance for runtime variance
		t.Errorf("potential goroutine leak: before=%d, after=%d", before, after)
	}
}

// TestHandleSSE_ServerShutdownIntegration tests that SSE handlers exit cleanly
// when the server is shut down, using a real HTTP connection.
func TestHandleSSE_ServerShutdownIntegration(t *testing.T) {
	srv, st := newTestServer(nil)
	st.Record(store.OutcomeRecord{Hostname: "a.ddns.net"})

	serverCtx, serverCancel := context.WithCancel(context.Background())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// derive request context from server context (simulates BaseContext)
		srv.handleSSE(w, r.WithContext(serverCtx))
	})
	ts := httptest.NewServer(handler)
	defer ts.Close()

	connDone := make(chan error, 1)
	go func() {
		resp, err := ts.Client().Get(ts.URL)
		if err != nil {
			connDone <- err
			return
		}
		defer func() { _ = resp.Body.Close() }()

		buf := make([]byte, 1024)
		for {
			if _, err := resp.Body.Read(buf); err != nil {
				connDone <- nil // expected - connection closed
				return
			}
		}
	}()

	time.Sleep(100 * time.Millisecond)
	serverCancel()

	select {
	case <-connDone:
	case <-time.After(3 * time.Second):
		t.Fatal("SSE connection did not close after server shutdown")
	}
}

func parseSSEEvents(body string) []store.OutcomeRecord {
	var results []store.OutcomeRecord
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			var rec store.OutcomeRecord
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &rec); err == nil {
				results = append(results, rec)
			}
		}
	}
	return results
}

// --- Server Start Tests ---

func TestStart_ServesAPI(t *testing.T) {
	// occupy then release a port to learn a free one
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	st := store.NewMemoryStore()
	st.Record(store.OutcomeRecord{Hostname: "a.ddns.net", Kind: "success"})
	srv := NewServer(st, &mockController{}, port, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + net.JoinHostPort("127.0.0.1", strconv.Itoa(port)) + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestStart_PortInUse_ReturnsError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer func() { _ = ln.Close() }()

	port := ln.Addr().(*net.TCPAddr).Port
	srv := NewServer(store.NewMemoryStore(), nil, port, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = srv.Start(ctx)
	if err == nil {
		t.Fatal("Start() on occupied port should return error")
	}
	if !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("expected bind error, got: %v", err)
	}
}

func TestStart_InvalidPort_ReturnsError(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), nil, -1, nil, "", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err == nil {
		t.Fatal("Start() with invalid port should return error")
	}
}

// --- Dashboard Title Tests ---

// mockFS implements fs.ReadFileFS for testing dashboard rendering.
type mockFS struct {
	content string
}

func (m *mockFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *mockFS) ReadFile(name string) ([]byte, error) {
	if name == "assets/index.html" {
		return []byte(m.content), nil
	}
	return nil, fs.ErrNotExist
}

func TestHandleDashboard_Title(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"custom", "Home Network", "<title>Home Network</title>"},
		{"default", "", "<title>No-IP Updater</title>"},
		{"escaped", "<script>alert('xss')</script>", "<title>&lt;script&gt;"},
		{"ampersand", "DNS & Status", "<title>DNS &amp; Status</title>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(store.NewMemoryStore(), nil, 0, &mockFS{content: "<title>{{.Title}}</title>"}, tt.title, testLogger())
			rec := doRequest(srv, http.MethodGet, "/")
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestHandleDashboard_NotFound(t *testing.T) {
	srv := NewServer(store.NewMemoryStore(), nil, 0, nil, "", testLogger())
	rec := httptest.NewRecorder()
	srv.handleDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	srv = NewServer(store.NewMemoryStore(), nil, 0, &mockFS{content: "x"}, "", testLogger())
	if rec := doRequest(srv, http.MethodGet, "/other"); rec.Code != http.StatusNotFound {
		t.Errorf("status for non-root path = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
