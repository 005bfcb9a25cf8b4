package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
)

// Sink performs the bulk write of a batch.
//
// Write must send all records as a single request and return nil only when
// the database accepted them.
type Sink interface {
	Write(ctx context.Context, measurement string, records []Record) error
}

// WriterOptions configures a Writer.
type WriterOptions struct {
	// Measurement is the series name every record is written under.
	Measurement string

	// RetainOnFailure keeps a failed batch for the next flush instead of
	// discarding it.
	RetainOnFailure bool

	// MaxRetained caps the records kept by RetainOnFailure. Oldest records
	// are discarded first. Zero or less means no cap.
	MaxRetained int
}

// Writer flushes batches through a Sink.
type Writer struct {
	sink    Sink
	opts    WriterOptions
	logger  *logging.Logger
	metrics *Metrics
}

// NewWriter creates a Writer.
func NewWriter(sink Sink, opts WriterOptions, logger *logging.Logger, metrics *Metrics) *Writer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Writer{
		sink:    sink,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// Flush writes every record in b in one call to the sink.
//
// On success the batch is cleared. On failure the error is logged and,
// unless RetainOnFailure is set, the batch is cleared as well; the records
// are not retried.
//
// Returns:
//   - error: nil on success, or ErrFlushFailed wrapping the sink error
func (w *Writer) Flush(ctx context.Context, b *Batch) error {
	records := b.Records()

	start := time.Now()
	err := w.sink.Write(ctx, w.opts.Measurement, records)
	w.metrics.observeFlush(err, len(records), time.Since(start))

	if err == nil {
		w.logger.Debug("batch written", "records", len(records))
		b.Clear()
		w.metrics.setBatchRecords(0)
		return nil
	}

	w.logger.Error("writing batch failed",
		"records", len(records),
		"error", err,
	)

	if w.opts.RetainOnFailure {
		dropped := 0
		if w.opts.MaxRetained > 0 {
			dropped = b.Trim(w.opts.MaxRetained)
		}
		if dropped > 0 {
			w.logger.Warn("retained batch over limit, discarding oldest records",
				"dropped", dropped,
				"max_retained", w.opts.MaxRetained,
			)
		}
		w.metrics.observeDropped(dropped)
	} else {
		b.Clear()
		w.metrics.observeDropped(len(records))
	}
	w.metrics.setBatchRecords(b.Len())

	return fmt.Errorf("%w: %w", ErrFlushFailed, err)
}
