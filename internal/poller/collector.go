package poller

import (
	"time"

	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/sensor"
)

// SensorReader reads a single sensor. *sensor.Reader satisfies it.
type SensorReader interface {
	Read(spec sensor.Spec) sensor.Reading
}

// Collector builds one Record per tick from the configured sensors.
type Collector struct {
	reader  SensorReader
	logger  *logging.Logger
	metrics *Metrics
}

// NewCollector creates a Collector.
//
// Parameters:
//   - reader: Source of individual sensor readings
//   - logger: Receives sentinel and read-error reports
//   - metrics: Optional, may be nil
func NewCollector(reader SensorReader, logger *logging.Logger, metrics *Metrics) *Collector {
	if logger == nil {
		logger = logging.Default()
	}
	return &Collector{
		reader:  reader,
		logger:  logger,
		metrics: metrics,
	}
}

// Collect reads every sensor once, in list order, and returns a record
// stamped with now.
//
// Only valid readings become fields. When two entries share a name the later
// one wins. Absent sensors are skipped quietly; sentinel values and read
// errors are logged. The returned record may have no fields.
func (c *Collector) Collect(sensors []sensor.Spec, now time.Time) Record {
	rec := NewRecord(now)

	for _, spec := range sensors {
		reading := c.reader.Read(spec)
		c.metrics.observeReading(reading.Status)

		switch reading.Status {
		case sensor.StatusOK:
			rec.Fields[spec.Name] = reading.Value
		case sensor.StatusSentinel:
			c.logger.Info("sensor returned power-on value, ignoring",
				"bus_id", spec.BusID,
				"sensor", spec.Name,
				"raw_mdegc", reading.Raw,
			)
		case sensor.StatusError:
			c.logger.Error("sensor read failed",
				"bus_id", spec.BusID,
				"sensor", spec.Name,
				"error", reading.Err,
			)
		default:
			c.logger.Debug("sensor not present",
				"bus_id", spec.BusID,
				"sensor", spec.Name,
			)
		}
	}

	return rec
}
