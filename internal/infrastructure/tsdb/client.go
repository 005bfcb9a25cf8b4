package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
)

// Default timeouts for TSDB operations.
const (
	defaultWriteTimeout  = 20 * time.Second
	defaultHealthTimeout = 5 * time.Second

	// maxErrorBody limits how much of an error response is quoted in errors.
	maxErrorBody = 512
)

// Client writes InfluxDB line protocol to the 1.x HTTP /write endpoint.
//
// Unlike the influxdb package it has no dependency beyond net/http, which
// makes it usable against InfluxDB 1.x servers older than 1.8 and against
// line-protocol compatible stores such as VictoriaMetrics.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	database   string
	rp         string
	username   string
	password   string
	httpClient *http.Client

	connected bool
	mu        sync.RWMutex
}

// Connect creates a line-protocol client for the configured server.
//
// No request is made: call HealthCheck to probe the server.
//
// Parameters:
//   - cfg: InfluxDB configuration (database, credentials, timeout)
//
// Returns:
//   - *Client: Client ready for writes
//   - error: If no database is configured
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if cfg.Database == "" {
		return nil, fmt.Errorf("%w: no database configured", ErrConnectionFailed)
	}

	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL(), "/"),
		database: cfg.Database,
		rp:       cfg.RetentionPolicy,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		connected: true,
	}, nil
}

// Close marks the client closed and releases idle connections.
//
// Returns:
//   - error: nil
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.httpClient.CloseIdleConnections()
	return nil
}

// HealthCheck verifies the server answers GET /ping.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	checkCtx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, c.baseURL+"/ping", nil)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tsdb health check: status %d", resp.StatusCode)
	}

	return nil
}

// IsConnected reports whether the client is open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ServerURL returns the base URL the client talks to.
func (c *Client) ServerURL() string {
	return c.baseURL
}

// WriteLines posts lines as one newline-delimited request with second precision.
//
// An empty call is a successful no-op.
//
// Returns:
//   - error: ErrNotConnected after Close, or ErrWriteFailed describing the
//     transport failure or non-2xx response
func (c *Client) WriteLines(ctx context.Context, lines []string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if len(lines) == 0 {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.writeURL(), strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: HTTP %d: %s", ErrWriteFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// writeURL builds the /write URL for the configured database.
func (c *Client) writeURL() string {
	q := url.Values{}
	q.Set("db", c.database)
	if c.rp != "" {
		q.Set("rp", c.rp)
	}
	q.Set("precision", "s")
	return c.baseURL + "/write?" + q.Encode()
}
