package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/sensor"
)

// Options configures a Scheduler.
type Options struct {
	// Sensors is the ordered list read on every tick.
	Sensors []sensor.Spec

	// BatchSize is the number of ticks between flush attempts. Must be >= 1.
	BatchSize int

	// Interval is the sleep after each tick.
	Interval time.Duration

	// Clock supplies tick timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Deps holds the collaborators of a Scheduler.
type Deps struct {
	Collector *Collector
	Writer    *Writer

	// Publisher is optional.
	Publisher *RecordPublisher

	Logger  *logging.Logger
	Metrics *Metrics
}

// State is the data carried from one tick to the next.
type State struct {
	// Batch holds records not yet written.
	Batch Batch

	// Polls counts ticks since the last flush attempt.
	Polls int
}

// Status is a point-in-time view of the loop for monitoring.
type Status struct {
	Ticks           uint64    `json:"ticks"`
	BatchSize       int       `json:"batch_size"`
	PendingRecords  int       `json:"pending_records"`
	PollsSinceFlush int       `json:"polls_since_flush"`
	LastTick        time.Time `json:"last_tick"`
	LastFlush       time.Time `json:"last_flush"`
	LastFlushError  string    `json:"last_flush_error,omitempty"`
	LastRecord      *Record   `json:"last_record,omitempty"`
}

// Healthy reports whether the most recent flush, if any, succeeded.
func (s Status) Healthy() bool {
	return s.LastFlushError == ""
}

// Scheduler runs the tick loop.
//
// Thread Safety: Tick and Run must be called from one goroutine. Status is
// safe for concurrent use.
type Scheduler struct {
	opts      Options
	collector *Collector
	writer    *Writer
	publisher *RecordPublisher
	logger    *logging.Logger
	metrics   *Metrics

	// state is owned by the goroutine driving Tick.
	state State

	mu     sync.RWMutex
	status Status
}

// NewScheduler validates opts and creates a Scheduler with an empty state.
//
// Returns:
//   - *Scheduler: Ready to Run
//   - error: ErrInvalidOptions if the batch size or a required dependency is missing
func NewScheduler(opts Options, deps Deps) (*Scheduler, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("%w: batch size must be at least 1, got %d", ErrInvalidOptions, opts.BatchSize)
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("%w: interval must not be negative", ErrInvalidOptions)
	}
	if deps.Collector == nil || deps.Writer == nil {
		return nil, fmt.Errorf("%w: collector and writer are required", ErrInvalidOptions)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Scheduler{
		opts:      opts,
		collector: deps.Collector,
		writer:    deps.Writer,
		publisher: deps.Publisher,
		logger:    logger,
		metrics:   deps.Metrics,
		status:    Status{BatchSize: opts.BatchSize},
	}, nil
}

// Tick performs one sampling cycle.
//
// It collects a record, appends it to the batch and, once BatchSize ticks
// have accumulated, flushes the batch. The poll counter resets after every
// flush attempt whatever its outcome.
//
// Returns:
//   - error: The flush error when this tick flushed and the write failed, nil otherwise
func (s *Scheduler) Tick(ctx context.Context) error {
	s.state.Polls++
	now := s.opts.Clock()

	rec := s.collector.Collect(s.opts.Sensors, now)
	s.state.Batch.Append(rec)
	s.metrics.setBatchRecords(s.state.Batch.Len())
	s.publisher.Publish(rec)

	var flushErr error
	flushed := false
	if s.state.Polls >= s.opts.BatchSize {
		flushErr = s.writer.Flush(ctx, &s.state.Batch)
		s.state.Polls = 0
		flushed = true
	}

	last := rec.Clone()
	s.mu.Lock()
	s.status.Ticks++
	s.status.LastTick = rec.Time
	s.status.LastRecord = &last
	s.status.PendingRecords = s.state.Batch.Len()
	s.status.PollsSinceFlush = s.state.Polls
	if flushed {
		s.status.LastFlush = rec.Time
		s.status.LastFlushError = ""
		if flushErr != nil {
			s.status.LastFlushError = flushErr.Error()
		}
	}
	s.mu.Unlock()

	return flushErr
}

// Run ticks until ctx is cancelled, sleeping Interval after each tick.
//
// Pending records are not flushed on return.
//
// Returns:
//   - error: ctx.Err() once the context is done
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("poller started",
		"sensors", len(s.opts.Sensors),
		"batch_size", s.opts.BatchSize,
		"interval", s.opts.Interval.String(),
	)

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("poller stopped", "pending_records", s.state.Batch.Len())
			return err
		}

		// Flush failures are already logged by the writer.
		_ = s.Tick(ctx)

		timer := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// Status returns a snapshot of the loop.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.status
	if st.LastRecord != nil {
		last := st.LastRecord.Clone()
		st.LastRecord = &last
	}
	return st
}

// State returns a copy of the loop state. It must not be called
// concurrently with Tick or Run.
func (s *Scheduler) State() State {
	return State{
		Batch: Batch{records: s.state.Batch.Records()},
		Polls: s.state.Polls,
	}
}
