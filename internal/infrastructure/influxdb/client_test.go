package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
	"github.com/nerrad567/w1logger/internal/infrastructure/influxdb"
)

// fakeServer records write requests and answers with a configurable status.
type fakeServer struct {
	mu          sync.Mutex
	status      int
	bodies      []string
	queries     []string
	authHeaders []string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v2/write", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.bodies = append(f.bodies, string(body))
		f.queries = append(f.queries, r.URL.RawQuery)
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		status := f.status
		f.mu.Unlock()

		if status >= 300 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"code":"internal error","message":"boom"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

// testConfig points the client at srv using 1.x addressing.
func testConfig(t *testing.T, srv *httptest.Server) config.InfluxDBConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return config.InfluxDBConfig{
		Host:     host,
		Port:     port,
		Database: "heating",
		Username: "writer",
		Password: "secret",
		Timeout:  5,
	}
}

func newFake(t *testing.T, status int) (*fakeServer, *httptest.Server) {
	t.Helper()
	fake := &fakeServer{status: status}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return fake, srv
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	_, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if !strings.HasPrefix(client.ServerURL(), srv.URL) {
		t.Errorf("ServerURL() = %q, want prefix %q", client.ServerURL(), srv.URL)
	}
}

func TestConnect_NoDatabase(t *testing.T) {
	_, err := influxdb.Connect(config.InfluxDBConfig{Host: "127.0.0.1", Port: 8086})
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.InfluxDBConfig
		wantOrg    string
		wantBucket string
	}{
		{
			name:       "database only",
			cfg:        config.InfluxDBConfig{Database: "heating"},
			wantBucket: "heating",
		},
		{
			name:       "database with retention policy",
			cfg:        config.InfluxDBConfig{Database: "heating", RetentionPolicy: "one_year"},
			wantBucket: "heating/one_year",
		},
		{
			name:       "bucket wins",
			cfg:        config.InfluxDBConfig{Database: "heating", Org: "home", Bucket: "sensors"},
			wantOrg:    "home",
			wantBucket: "sensors",
		},
		{
			name: "nothing configured",
			cfg:  config.InfluxDBConfig{RetentionPolicy: "autogen"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			org, bucket := influxdb.Target(tt.cfg)
			if org != tt.wantOrg || bucket != tt.wantBucket {
				t.Errorf("Target() = (%q, %q), want (%q, %q)", org, bucket, tt.wantOrg, tt.wantBucket)
			}
		})
	}
}

// =============================================================================
// Health Check Tests
// =============================================================================

func TestHealthCheck(t *testing.T) {
	_, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheck_Unreachable(t *testing.T) {
	_, srv := newFake(t, http.StatusNoContent)
	cfg := testConfig(t, srv)
	srv.Close()

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail when the server is down")
	}
}

func TestHealthCheck_AfterClose(t *testing.T) {
	_, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close()

	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWritePoints(t *testing.T) {
	fake, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err = client.WritePoints(context.Background(),
		influxdb.NewFieldsPoint("onewire", map[string]float64{"flow": 21.5}, ts),
		influxdb.NewFieldsPoint("onewire", map[string]float64{"flow": 22}, ts.Add(15*time.Second)),
	)
	if err != nil {
		t.Fatalf("WritePoints() error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()

	if len(fake.bodies) != 1 {
		t.Fatalf("server saw %d write requests, want 1", len(fake.bodies))
	}
	lines := strings.Split(strings.TrimSpace(fake.bodies[0]), "\n")
	if len(lines) != 2 {
		t.Fatalf("body has %d lines, want 2: %q", len(lines), fake.bodies[0])
	}
	if lines[0] != "onewire flow=21.5 1704067200" {
		t.Errorf("line[0] = %q", lines[0])
	}
	if !strings.Contains(fake.queries[0], "bucket=heating") {
		t.Errorf("query = %q, want bucket=heating", fake.queries[0])
	}
	if !strings.Contains(fake.queries[0], "precision=s") {
		t.Errorf("query = %q, want precision=s", fake.queries[0])
	}
	if fake.authHeaders[0] != "Token writer:secret" {
		t.Errorf("Authorization = %q, want 1.x credentials token", fake.authHeaders[0])
	}
}

func TestWritePoints_Empty(t *testing.T) {
	fake, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if err := client.WritePoints(context.Background()); err != nil {
		t.Errorf("WritePoints() with no points error = %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.bodies) != 0 {
		t.Errorf("server saw %d requests for an empty write, want 0", len(fake.bodies))
	}
}

func TestWritePoints_ServerError(t *testing.T) {
	_, srv := newFake(t, http.StatusBadRequest)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	err = client.WritePoints(context.Background(),
		influxdb.NewFieldsPoint("onewire", map[string]float64{"flow": 1}, time.Now()))
	if !errors.Is(err, influxdb.ErrWriteFailed) {
		t.Errorf("WritePoints() error = %v, want ErrWriteFailed", err)
	}
}

func TestWritePoints_AfterClose(t *testing.T) {
	_, srv := newFake(t, http.StatusNoContent)

	client, err := influxdb.Connect(testConfig(t, srv))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}

	err = client.WritePoints(context.Background(),
		influxdb.NewFieldsPoint("onewire", map[string]float64{"flow": 1}, time.Now()))
	if !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("WritePoints() error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
