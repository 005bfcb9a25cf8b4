package poller

import (
	"encoding/json"

	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
)

// Publisher sends a payload to a message topic. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// RecordPublisher pushes each collected record to a live topic.
//
// A nil *RecordPublisher is valid and publishes nothing.
type RecordPublisher struct {
	pub         Publisher
	topic       string
	measurement string
	qos         byte
	logger      *logging.Logger
}

// recordMessage is the JSON payload published for each record.
type recordMessage struct {
	Measurement string             `json:"measurement"`
	Time        string             `json:"time"`
	Fields      map[string]float64 `json:"fields"`
}

// NewRecordPublisher creates a RecordPublisher.
//
// Parameters:
//   - pub: Message transport
//   - topic: Destination topic (e.g. "w1logger/record/onewire")
//   - measurement: Included in every payload
//   - qos: Delivery QoS, not retained
//   - logger: Receives publish failures
func NewRecordPublisher(pub Publisher, topic, measurement string, qos byte, logger *logging.Logger) *RecordPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecordPublisher{
		pub:         pub,
		topic:       topic,
		measurement: measurement,
		qos:         qos,
		logger:      logger,
	}
}

// Publish sends rec. Failures are logged and otherwise ignored.
func (p *RecordPublisher) Publish(rec Record) {
	if p == nil {
		return
	}

	fields := rec.Fields
	if fields == nil {
		fields = map[string]float64{}
	}
	payload, err := json.Marshal(recordMessage{
		Measurement: p.measurement,
		Time:        rec.Timestamp(),
		Fields:      fields,
	})
	if err != nil {
		p.logger.Warn("encoding record failed", "error", err)
		return
	}

	if err := p.pub.Publish(p.topic, payload, p.qos, false); err != nil {
		p.logger.Warn("publishing record failed",
			"topic", p.topic,
			"error", err,
		)
	}
}
