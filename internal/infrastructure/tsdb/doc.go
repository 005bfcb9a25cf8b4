// Package tsdb writes InfluxDB line protocol over plain HTTP.
//
// It targets the InfluxDB 1.x /write endpoint (also served by
// VictoriaMetrics and other compatible stores) using only net/http, and is
// selected with influxdb.backend: "line". The default backend uses the
// official client library instead (see package influxdb).
//
// # Usage
//
//	client, err := tsdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	line := tsdb.FormatLine("onewire", nil,
//	    map[string]interface{}{"flow": 41.5}, now)
//	err = client.WriteLines(ctx, []string{line})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Precision
//
// Timestamps are written in whole seconds (precision=s).
package tsdb
