package poller

import (
	"context"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/w1logger/internal/infrastructure/influxdb"
	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/infrastructure/tsdb"
)

// PointWriter is the write side of the InfluxDB client.
// *influxdb.Client satisfies it.
type PointWriter interface {
	WritePoints(ctx context.Context, points ...*write.Point) error
}

// LineWriter posts raw line protocol. *tsdb.Client satisfies it.
type LineWriter interface {
	WriteLines(ctx context.Context, lines []string) error
}

// InfluxSink writes batches with the InfluxDB client library.
type InfluxSink struct {
	client PointWriter
	logger *logging.Logger
}

// NewInfluxSink creates a Sink backed by the InfluxDB client library.
func NewInfluxSink(client PointWriter, logger *logging.Logger) *InfluxSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &InfluxSink{client: client, logger: logger}
}

// Write converts each record to a point and sends them in one request.
// Records without fields are skipped since a point needs at least one.
func (s *InfluxSink) Write(ctx context.Context, measurement string, records []Record) error {
	points := make([]*write.Point, 0, len(records))
	for _, rec := range records {
		if rec.Empty() {
			continue
		}
		points = append(points, influxdb.NewFieldsPoint(measurement, rec.Fields, rec.Time))
	}
	logSkipped(s.logger, len(records)-len(points))

	return s.client.WritePoints(ctx, points...)
}

// LineSink writes batches as line protocol to the 1.x /write endpoint.
type LineSink struct {
	client LineWriter
	logger *logging.Logger
}

// NewLineSink creates a Sink that posts line protocol.
func NewLineSink(client LineWriter, logger *logging.Logger) *LineSink {
	if logger == nil {
		logger = logging.Default()
	}
	return &LineSink{client: client, logger: logger}
}

// Write formats each record as one line and posts them in one request.
// Records without fields are skipped since a line needs at least one.
func (s *LineSink) Write(ctx context.Context, measurement string, records []Record) error {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.Empty() {
			continue
		}
		fields := make(map[string]interface{}, len(rec.Fields))
		for k, v := range rec.Fields {
			fields[k] = v
		}
		lines = append(lines, tsdb.FormatLine(measurement, nil, fields, rec.Time))
	}
	logSkipped(s.logger, len(records)-len(lines))

	return s.client.WriteLines(ctx, lines)
}

func logSkipped(logger *logging.Logger, n int) {
	if n > 0 {
		logger.Debug("skipping records without fields", "records", n)
	}
}
