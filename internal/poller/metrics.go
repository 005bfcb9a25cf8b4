package poller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/w1logger/internal/sensor"
)

const (
	metricPrefix = "w1logger_"

	resultSuccess = "success"
	resultError   = "error"
)

// Metrics holds the Prometheus collectors updated by the sampling loop.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	readings      *prometheus.CounterVec
	flushes       *prometheus.CounterVec
	written       prometheus.Counter
	dropped       prometheus.Counter
	flushDuration prometheus.Histogram
	batchRecords  prometheus.Gauge
}

// NewMetrics creates the loop collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		readings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "sensor_readings_total",
				Help: "Total sensor reads by outcome",
			},
			[]string{"status"},
		),
		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "flushes_total",
				Help: "Total batch flushes by result",
			},
			[]string{"result"},
		),
		written: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_written_total",
				Help: "Total records accepted by the database",
			},
		),
		dropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_dropped_total",
				Help: "Total records discarded after failed writes",
			},
		),
		flushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "flush_duration_seconds",
				Help:    "Batch write latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		batchRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "batch_records",
				Help: "Records pending in the current batch",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.readings,
			m.flushes,
			m.written,
			m.dropped,
			m.flushDuration,
			m.batchRecords,
		)
	}

	return m
}

func (m *Metrics) observeReading(status sensor.Status) {
	if m == nil {
		return
	}
	m.readings.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) observeFlush(err error, records int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flushDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.flushes.WithLabelValues(resultError).Inc()
		return
	}
	m.flushes.WithLabelValues(resultSuccess).Inc()
	m.written.Add(float64(records))
}

func (m *Metrics) observeDropped(records int) {
	if m == nil || records <= 0 {
		return
	}
	m.dropped.Add(float64(records))
}

func (m *Metrics) setBatchRecords(n int) {
	if m == nil {
		return
	}
	m.batchRecords.Set(float64(n))
}
