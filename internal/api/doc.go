// Package api implements the status HTTP server for w1logger.
//
// This package provides:
//   - GET /health: poller status snapshot and dependency checks
//   - GET /metrics: Prometheus exposition of the loop and runtime metrics
//   - Middleware stack (request ID, logging, recovery)
//
// The server is optional (api.enabled) and read-only. It never touches the
// sampling loop directly: it reads snapshots through StatusProvider, so a
// slow scrape cannot delay a tick.
//
// /health answers 503 once the most recent batch write has failed and 200
// again after the next successful one.
package api
