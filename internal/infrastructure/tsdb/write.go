package tsdb

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// FormatLine formats a data point as an InfluxDB line protocol string with
// a timestamp in seconds.
//
// Format: measurement,tag1=val1,tag2=val2 field1=val1,field2=val2 timestamp_s
//
// The caller must supply at least one field; line protocol has no
// representation for a point without fields.
func FormatLine(measurement string, tags map[string]string, fields map[string]interface{}, t time.Time) string {
	var b strings.Builder

	// Measurement (escaped to prevent injection)
	b.WriteString(escapeMeasurement(measurement))

	// Tags (sorted for deterministic output and testability)
	tagKeys := make([]string, 0, len(tags))
	for k := range tags {
		tagKeys = append(tagKeys, k)
	}
	sort.Strings(tagKeys)
	for _, k := range tagKeys {
		b.WriteByte(',')
		b.WriteString(escapeTag(k))
		b.WriteByte('=')
		b.WriteString(escapeTag(tags[k]))
	}

	// Fields (sorted for deterministic output)
	fieldKeys := make([]string, 0, len(fields))
	for k := range fields {
		fieldKeys = append(fieldKeys, k)
	}
	sort.Strings(fieldKeys)
	b.WriteByte(' ')
	for i, k := range fieldKeys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeTag(k))
		b.WriteByte('=')
		switch val := fields[k].(type) {
		case float64:
			b.WriteString(fmt.Sprintf("%g", val))
		case int:
			b.WriteString(fmt.Sprintf("%di", val))
		case int64:
			b.WriteString(fmt.Sprintf("%di", val))
		case bool:
			if val {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		case string:
			b.WriteString(fmt.Sprintf("%q", val))
		default:
			b.WriteString(fmt.Sprintf("%v", val))
		}
	}

	// Timestamp in seconds, matching precision=s on the write URL
	b.WriteByte(' ')
	b.WriteString(fmt.Sprintf("%d", t.Unix()))

	return b.String()
}

// escapeTag escapes special characters in tag keys/values and field keys.
// Commas, equals signs, and spaces must be backslash-escaped.
// Newlines are stripped to prevent line protocol injection.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "=", "\\=")
	return s
}

// escapeMeasurement escapes special characters in measurement names.
// Newlines are stripped to prevent line protocol injection.
func escapeMeasurement(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, " ", "\\ ")
	s = strings.ReplaceAll(s, ",", "\\,")
	return s
}
