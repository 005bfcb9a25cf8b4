package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/w1logger/internal/poller"
)

// dependencyCheckTimeout bounds each dependency probe on /health.
const dependencyCheckTimeout = 2 * time.Second

// Health status values.
const (
	healthOK       = "ok"
	healthDegraded = "degraded"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Poller        poller.Status     `json:"poller"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
}

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(echoRequestID)
	r.Use(s.accessLog)
	r.Use(s.recoverPanics)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	return r
}

// handleHealth reports the loop status. It answers 503 while the last
// flush attempt has failed.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.status.Status()

	resp := HealthResponse{
		Status:        healthOK,
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Poller:        st,
		Dependencies:  s.checkDependencies(r.Context()),
	}

	code := http.StatusOK
	if !st.Healthy() {
		resp.Status = healthDegraded
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, resp)
}

// checkDependencies probes every configured check. Results are "ok" or the
// error text. Dependency failures do not change the status code.
func (s *Server) checkDependencies(ctx context.Context) map[string]string {
	if len(s.checks) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, dependencyCheckTimeout)
		err := s.checks[name].HealthCheck(checkCtx)
		cancel()
		if err != nil {
			results[name] = err.Error()
			continue
		}
		results[name] = healthOK
	}
	return results
}
