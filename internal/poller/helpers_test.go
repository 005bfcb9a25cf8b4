package poller_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/nerrad567/w1logger/internal/infrastructure/config"
	"github.com/nerrad567/w1logger/internal/infrastructure/logging"
	"github.com/nerrad567/w1logger/internal/poller"
)

var errSink = errors.New("influxdb unreachable")

// sensorTree builds a sysfs-like tree with one temp1_input per bus id.
func sensorTree(values map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for busID, v := range values {
		fsys[busID+"/hwmon/hwmon0/temp1_input"] = &fstest.MapFile{Data: []byte(v + "\n")}
	}
	return fsys
}

// fakeSink records every Write call.
type fakeSink struct {
	mu    sync.Mutex
	err   error
	calls [][]poller.Record
	names []string
}

func (f *fakeSink) Write(_ context.Context, measurement string, records []poller.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, records)
	f.names = append(f.names, measurement)
	return f.err
}

func (f *fakeSink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type logEntry map[string]any

func (e logEntry) level() string {
	s, _ := e["level"].(string)
	return s
}

func (e logEntry) msg() string {
	s, _ := e["msg"].(string)
	return s
}

// logBuffer captures JSON log output at debug level.
type logBuffer struct {
	buf bytes.Buffer
}

func newTestLogger() (*logging.Logger, *logBuffer) {
	lb := &logBuffer{}
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "test", &lb.buf)
	return logger, lb
}

func (lb *logBuffer) entries(t *testing.T) []logEntry {
	t.Helper()
	var out []logEntry
	sc := bufio.NewScanner(bytes.NewReader(lb.buf.Bytes()))
	for sc.Scan() {
		var e logEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", sc.Text(), err)
		}
		out = append(out, e)
	}
	return out
}

// atLevel returns the entries logged at one of the given levels.
func (lb *logBuffer) atLevel(t *testing.T, levels ...string) []logEntry {
	t.Helper()
	var out []logEntry
	for _, e := range lb.entries(t) {
		for _, l := range levels {
			if e.level() == l {
				out = append(out, e)
			}
		}
	}
	return out
}
