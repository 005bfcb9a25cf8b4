package poller

import "errors"

// Sentinel errors for poller operations.
var (
	// ErrFlushFailed indicates the sink rejected a batch.
	ErrFlushFailed = errors.New("poller: flush failed")

	// ErrInvalidOptions indicates a Scheduler was built with unusable options.
	ErrInvalidOptions = errors.New("poller: invalid options")
)
