package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultPingTimeout    = 5 * time.Second
	defaultRequestTimeout = 20 * time.Second
)

// Client wraps the InfluxDB v2 client for synchronous batch writes.
//
// Writes go through the blocking write API so the caller learns the outcome
// of each batch immediately. Both InfluxDB 2.x (org/bucket/token) and the
// 1.8+ compatibility endpoints (database/retention policy, username:password
// token) are supported.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	cfg      config.InfluxDBConfig

	// connected is false once Close has been called.
	connected bool
	mu        sync.RWMutex
}

// Connect creates a client for the configured server.
//
// It does not perform network I/O: the server may legitimately be down at
// startup and every write reports its own failure. Call HealthCheck to
// probe the server explicitly.
//
// Parameters:
//   - cfg: InfluxDB configuration
//
// Returns:
//   - *Client: Client ready for writes
//   - error: If the configuration cannot address a database
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	org, bucket := Target(cfg)
	if bucket == "" {
		return nil, fmt.Errorf("%w: no database or bucket configured", ErrConnectionFailed)
	}

	timeout := cfg.GetTimeout()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// #nosec G115 -- timeout validated above to be positive
	client := influxdb2.NewClientWithOptions(
		cfg.URL(),
		authToken(cfg),
		influxdb2.DefaultOptions().
			SetPrecision(time.Second).
			SetHTTPRequestTimeout(uint(timeout / time.Second)),
	)

	return &Client{
		client:    client,
		writeAPI:  client.WriteAPIBlocking(org, bucket),
		cfg:       cfg,
		connected: true,
	}, nil
}

// Target returns the org and bucket the client writes to.
//
// With an explicit bucket the 2.x addressing is used unchanged. Otherwise
// the 1.x database and optional retention policy are mapped onto the
// compatibility bucket "database/retention_policy" with an empty org.
func Target(cfg config.InfluxDBConfig) (org, bucket string) {
	if cfg.Bucket != "" {
		return cfg.Org, cfg.Bucket
	}
	bucket = cfg.Database
	if bucket != "" && cfg.RetentionPolicy != "" {
		bucket += "/" + cfg.RetentionPolicy
	}
	return "", bucket
}

// authToken returns the configured token, or the 1.x "username:password"
// form when only credentials are set.
func authToken(cfg config.InfluxDBConfig) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	if cfg.Username != "" {
		return cfg.Username + ":" + cfg.Password
	}
	return ""
}

// Close releases idle HTTP connections. Writes after Close fail with ErrNotConnected.
//
// Returns:
//   - error: nil (InfluxDB client Close doesn't return errors)
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.client.Close()
	return nil
}

// HealthCheck verifies the InfluxDB server answers pings.
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

	checkCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(checkCtx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}

	return nil
}

// IsConnected reports whether the client is open.
//
// Note: This does not probe the server. Use HealthCheck for that.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ServerURL returns the base URL the client talks to.
func (c *Client) ServerURL() string {
	return c.client.ServerURL()
}
