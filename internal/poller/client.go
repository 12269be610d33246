package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// DefaultUpdateURL is the provider's fixed update endpoint.
const DefaultUpdateURL = "https://dynupdate.no-ip.com/nic/update"

// DefaultTimeout is the per-request timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// connection pooling limits; one idle connection per hostname worker is plenty
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// Credentials are the account credentials sent with every update request.
type Credentials struct {
	Username string
	Password string
}

// Kind classifies the outcome of a single update request.
type Kind int

const (
	// KindSuccess means the provider answered with HTTP 200.
	KindSuccess Kind = iota

	// KindProviderError means the provider answered with any other status code.
	KindProviderError

	// KindTransportError means no usable HTTP response was received.
	KindTransportError
)

// Result holds the classified result of an update request made by [Client].
type Result struct {
	// Kind is the classification of the request outcome.
	Kind Kind

	// StatusCode is the HTTP status code. Zero for transport errors.
	StatusCode int

	// Body is the response body, limited to 1MB. Empty for transport errors.
	Body string

	// Message describes the transport failure. Empty otherwise.
	Message string

	// Latency is the total time taken for the request.
	Latency time.Duration
}

// Client performs authenticated dynamic-DNS update requests.
//
// Client uses per-request timeouts via context rather than a global timeout.
// It never retries: retrying is left to the worker's polling cadence.
type Client struct {
	httpClient *http.Client
	updateURL  string
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a new update [Client].
//
// An empty updateURL selects [DefaultUpdateURL] and a non-positive timeout
// selects [DefaultTimeout].
func NewClient(updateURL string, timeout time.Duration, userAgent string) *Client {
	if updateURL == "" {
		updateURL = DefaultUpdateURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		updateURL: updateURL,
		timeout:   timeout,
		userAgent: userAgent,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Update asks the provider to point hostname at the caller's address.
//
// Update always returns a classified [Result]; it never returns an error
// separately and never panics on network failure. HTTP 200 is a success,
// any other status is a provider error, and anything that prevents reading a
// complete response (DNS, connect, TLS, timeout, body read) is a transport
// error.
func (c *Client) Update(ctx context.Context, hostname string, creds Credentials) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()

	target, err := c.requestURL(hostname)
	if err != nil {
		return transportError(start, fmt.Errorf("failed to build request url: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return transportError(start, fmt.Errorf("failed to create request: %w", err))
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(start, fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return transportError(start, fmt.Errorf("failed to read response body: %w", err))
	}

	result := Result{
		Kind:       KindSuccess,
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Latency:    time.Since(start),
	}
	if resp.StatusCode != http.StatusOK {
		result.Kind = KindProviderError
	}
	return result
}

// requestURL appends the hostname query parameter to the update URL,
// preserving any query the URL already carries.
func (c *Client) requestURL(hostname string) (string, error) {
	u, err := url.Parse(c.updateURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("hostname", hostname)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func transportError(start time.Time, err error) Result {
	return Result{
		Kind:    KindTransportError,
		Message: err.Error(),
		Latency: time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times and on a nil receiver. The client remains
// usable afterwards.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
