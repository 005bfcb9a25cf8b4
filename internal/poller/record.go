package poller

import (
	"encoding/json"
	"time"
)

// TimeLayout is the textual form of a record timestamp.
const TimeLayout = "2006-01-02T15:04:05Z"

// Record is the set of sensor values captured during one tick.
//
// Fields maps sensor names to degrees Celsius and holds only sensors that
// produced a valid reading. Each record owns its Fields map.
type Record struct {
	Time   time.Time
	Fields map[string]float64
}

// NewRecord returns an empty record stamped with now, converted to UTC and
// truncated to the second.
func NewRecord(now time.Time) Record {
	return Record{
		Time:   now.UTC().Truncate(time.Second),
		Fields: make(map[string]float64),
	}
}

// Timestamp formats the record time using TimeLayout.
func (r Record) Timestamp() string {
	return r.Time.UTC().Format(TimeLayout)
}

// Empty reports whether no sensor contributed a value.
func (r Record) Empty() bool {
	return len(r.Fields) == 0
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string]float64, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Time: r.Time, Fields: fields}
}

// MarshalJSON encodes the record as {"time": "...", "fields": {...}}.
func (r Record) MarshalJSON() ([]byte, error) {
	fields := r.Fields
	if fields == nil {
		fields = map[string]float64{}
	}
	return json.Marshal(struct {
		Time   string             `json:"time"`
		Fields map[string]float64 `json:"fields"`
	}{
		Time:   r.Timestamp(),
		Fields: fields,
	})
}
