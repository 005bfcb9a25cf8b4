package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/poller"
)

// staticStatus returns a fixed poller status.
type staticStatus struct {
	status poller.Status
}

func (s staticStatus) Status() poller.Status { return s.status }

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func testServer(t *testing.T, status poller.Status, checks map[string]HealthChecker) *Server {
	t.Helper()

	reg := prometheus.NewRegistry()
	poller.NewMetrics(reg)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		Logger:   logging.Discard(),
		Status:   staticStatus{status: status},
		Gatherer: reg,
		Checks:   checks,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return srv
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(w, req)
	return w
}

// ─── Constructor Tests ─────────────────────────────────────────────

func TestNew_MissingDeps(t *testing.T) {
	if _, err := New(Deps{Status: staticStatus{}}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: logging.Discard()}); err == nil {
		t.Error("New() without status provider should fail")
	}
}

// ─── Health Tests ──────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	rec := poller.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	rec.Fields["flow"] = 21.5
	srv := testServer(t, poller.Status{
		Ticks:          4,
		BatchSize:      10,
		PendingRecords: 4,
		LastRecord:     &rec,
	}, nil)

	w := get(t, srv, "/health")

	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var resp struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Poller  struct {
			Ticks          int `json:"ticks"`
			PendingRecords int `json:"pending_records"`
			LastRecord     struct {
				Time   string             `json:"time"`
				Fields map[string]float64 `json:"fields"`
			} `json:"last_record"`
		} `json:"poller"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("status/version = %q/%q, want ok/test", resp.Status, resp.Version)
	}
	if resp.Poller.Ticks != 4 || resp.Poller.PendingRecords != 4 {
		t.Errorf("poller = %+v", resp.Poller)
	}
	if resp.Poller.LastRecord.Time != "2024-01-01T00:00:00Z" || resp.Poller.LastRecord.Fields["flow"] != 21.5 {
		t.Errorf("last_record = %+v", resp.Poller.LastRecord)
	}
	if resp.Dependencies != nil {
		t.Errorf("dependencies = %v, want omitted", resp.Dependencies)
	}
}

func TestHealth_FlushFailed(t *testing.T) {
	srv := testServer(t, poller.Status{
		LastFlushError: "poller: flush failed: connection refused",
	}, nil)

	w := get(t, srv, "/health")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("status = %q, want degraded", resp.Status)
	}
	if !strings.Contains(resp.Poller.LastFlushError, "connection refused") {
		t.Errorf("last_flush_error = %q", resp.Poller.LastFlushError)
	}
}

func TestHealth_Dependencies(t *testing.T) {
	srv := testServer(t, poller.Status{}, map[string]HealthChecker{
		"influxdb": checkFunc(func(context.Context) error { return nil }),
		"mqtt":     checkFunc(func(context.Context) error { return errors.New("mqtt: client not connected") }),
		"slow": checkFunc(func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		}),
	})

	w := get(t, srv, "/health")

	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d (dependency failures do not degrade)", w.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := map[string]string{
		"influxdb": "ok",
		"mqtt":     "mqtt: client not connected",
		"slow":     "ok",
	}
	for name, v := range want {
		if resp.Dependencies[name] != v {
			t.Errorf("dependencies[%q] = %q, want %q", name, resp.Dependencies[name], v)
		}
	}
}

// ─── Metrics Tests ─────────────────────────────────────────────────

func TestMetrics(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)

	w := get(t, srv, "/metrics")

	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, name := range []string{"w1logger_batch_records", "w1logger_records_written_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	families, err := NewRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, mf := range families {
		if mf.GetName() == "go_goroutines" {
			found = true
		}
	}
	if !found {
		t.Error("go_goroutines not registered")
	}
}

// ─── Middleware Tests ──────────────────────────────────────────────

func TestRequestID_Generated(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)

	w := get(t, srv, "/health")

	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	w := httptest.NewRecorder()

	srv.buildRouter().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "abc123")
	}
}

func TestRecovery(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)
	handler := srv.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAccessLog_ServerErrorAtWarn(t *testing.T) {
	var buf strings.Builder
	srv := testServer(t, poller.Status{}, nil)
	srv.logger = logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &buf)

	handler := srv.accessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("unmarshal log line %q: %v", buf.String(), err)
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
	if entry["status"] != float64(http.StatusServiceUnavailable) {
		t.Errorf("status = %v, want %d", entry["status"], http.StatusServiceUnavailable)
	}
}

func TestAccessLog_SuccessAtDebug(t *testing.T) {
	var buf strings.Builder
	srv := testServer(t, poller.Status{}, nil)
	srv.logger = logging.NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, "test", &buf)

	srv.buildRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if buf.Len() != 0 {
		t.Errorf("successful request logged above debug: %s", buf.String())
	}
}

func TestNotFound(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)

	w := get(t, srv, "/api/v1/devices")

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	var resp Error
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != ErrCodeNotFound {
		t.Errorf("code = %q, want %q", resp.Code, ErrCodeNotFound)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	w := httptest.NewRecorder()

	srv.buildRouter().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

// ─── Lifecycle Tests ───────────────────────────────────────────────

func TestStartClose(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)

	if got := srv.Addr(); got != "" {
		t.Errorf("Addr() before Start = %q, want empty", got)
	}

	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if srv.server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", srv.server.ReadTimeout)
	}
	if srv.server.WriteTimeout != 5*time.Second {
		t.Errorf("WriteTimeout = %v, want 5s", srv.server.WriteTimeout)
	}
	if srv.server.IdleTimeout != 5*time.Second {
		t.Errorf("IdleTimeout = %v, want 5s", srv.server.IdleTimeout)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClose_NotStarted(t *testing.T) {
	srv := testServer(t, poller.Status{}, nil)
	if err := srv.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
