// Package influxdb provides InfluxDB connectivity for w1logger.
//
// It wraps the official influxdb-client-go v2 library's blocking write API
// so each batch is written in one request whose outcome the poller sees
// directly.
//
// # Addressing
//
// InfluxDB 1.8+ is addressed by database and optional retention policy,
// authenticating with "username:password" as the token. InfluxDB 2.x is
// addressed by org and bucket with an API token. See Target.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	p := influxdb.NewFieldsPoint("onewire", map[string]float64{"flow": 41.5}, now)
//	if err := client.WritePoints(ctx, p); err != nil {
//	    logger.Error("write failed", "error", err)
//	}
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
package influxdb
