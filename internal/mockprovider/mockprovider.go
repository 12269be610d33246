// Package mockprovider emulates the No-IP update endpoint for local runs
// and tests.
//
// The handler answers /nic/update the way the provider does:
//
//	good <ip>    first update of a hostname, or a changed address
//	nochg <ip>   address unchanged
//	nohost       hostname not registered
//	badauth      wrong credentials (HTTP 401)
//	badagent     missing User-Agent
//	911          hostnames starting with "fail-" (HTTP 500)
//
// Hostnames starting with "slow-" are answered after [Provider.SlowDelay].
package mockprovider

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// UpdatePath is the path the provider serves.
const UpdatePath = "/nic/update"

// Provider is an in-memory dynamic DNS provider.
type Provider struct {
	// SlowDelay is how long "slow-" hostnames take to answer.
	SlowDelay time.Duration

	username string
	password string
	logger   *slog.Logger

	mu        sync.Mutex
	addresses map[string]string // hostname -> last address
	hits      map[string]int
}

// New creates a provider that accepts username/password and knows the given
// hostnames. Hostnames starting with "fail-" or "slow-" need not be listed.
func New(username, password string, logger *slog.Logger, hostnames ...string) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{
		SlowDelay: 30 * time.Second,
		username:  username,
		password:  password,
		logger:    logger,
		addresses: make(map[string]string),
		hits:      make(map[string]int),
	}
	for _, h := range hostnames {
		p.addresses[strings.ToLower(h)] = ""
	}
	return p
}

// Hits returns how many update requests hostname has received.
func (p *Provider) Hits(hostname string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[strings.ToLower(hostname)]
}

// Handler returns the HTTP handler serving [UpdatePath].
func (p *Provider) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(UpdatePath, p.handleUpdate)
	return mux
}

func (p *Provider) handleUpdate(w http.ResponseWriter, r *http.Request) {
	hostname := strings.ToLower(r.URL.Query().Get("hostname"))

	p.mu.Lock()
	p.hits[hostname]++
	p.mu.Unlock()

	if strings.HasPrefix(hostname, "slow-") {
		select {
		case <-time.After(p.SlowDelay):
		case <-r.Context().Done():
			return
		}
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != p.username || pass != p.password {
		p.reply(w, hostname, http.StatusUnauthorized, "badauth")
		return
	}
	if r.UserAgent() == "" {
		p.reply(w, hostname, http.StatusOK, "badagent")
		return
	}
	if strings.HasPrefix(hostname, "fail-") {
		p.reply(w, hostname, http.StatusInternalServerError, "911")
		return
	}

	ip := clientIP(r)

	p.mu.Lock()
	last, known := p.addresses[hostname]
	if known || strings.HasPrefix(hostname, "slow-") {
		p.addresses[hostname] = ip
	}
	p.mu.Unlock()

	switch {
	case !known && !strings.HasPrefix(hostname, "slow-"):
		p.reply(w, hostname, http.StatusOK, "nohost")
	case last == ip:
		p.reply(w, hostname, http.StatusOK, "nochg "+ip)
	default:
		p.reply(w, hostname, http.StatusOK, "good "+ip)
	}
}

func (p *Provider) reply(w http.ResponseWriter, hostname string, code int, body string) {
	p.logger.Info("update request", "hostname", hostname, "status", code, "response", body)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = fmt.Fprint(w, body)
}

// clientIP returns the myip parameter if given, else the caller's address.
func clientIP(r *http.Request) string {
	if ip := r.URL.Query().Get("myip"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
