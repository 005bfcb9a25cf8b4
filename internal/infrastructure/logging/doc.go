// Package logging provides structured logging for w1logger.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the poller and its sinks.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for interactive use (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("poller started", "sensors", 4)
//	logger.Error("writing batch failed", "error", err)
package logging
