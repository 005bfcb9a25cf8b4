package tsdb

import "errors"

// Sentinel errors for time-series database operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, tsdb.ErrWriteFailed) {
//	    // Handle failed batch
//	}
var (
	// ErrNotConnected indicates the client has been closed.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrConnectionFailed indicates the client could not be set up.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrWriteFailed indicates a write operation failed.
	ErrWriteFailed = errors.New("tsdb: write failed")
)
