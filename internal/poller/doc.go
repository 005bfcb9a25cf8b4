// Package poller drives the sampling loop of w1logger.
//
// It turns individual sensor readings into timestamped records, accumulates
// them into batches and hands each full batch to a Sink for a single bulk
// write.
//
// # Components
//
//   - Collector: reads every configured sensor once and builds a Record
//   - Batch: ordered, append-only list of records awaiting a write
//   - Writer: flushes a Batch through a Sink, applying the failure policy
//   - Scheduler: runs ticks at a fixed interval and triggers flushes
//   - InfluxSink, LineSink: Sink implementations for the two write backends
//   - RecordPublisher: optional live feed of each record over MQTT
//   - Metrics: Prometheus counters and gauges for the loop
//
// # Failure Policy
//
// A failed write is logged and the batch is discarded, so a database outage
// loses the records of the batches written during the outage but never
// stops sampling. WriterOptions.RetainOnFailure switches to keeping failed
// batches, bounded by WriterOptions.MaxRetained.
//
// Nothing is flushed when the loop stops; records still pending at shutdown
// are lost.
//
// # Concurrency
//
// Tick and Run must be driven from a single goroutine. Status may be called
// from any goroutine.
package poller
