// Package mqtt provides MQTT publishing for w1logger.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Topics
//
//	w1logger/record/<measurement>   one JSON message per tick, not retained
//	w1logger/system/status          retained online/offline status and LWT
//
// Publishing is an optional live feed alongside the InfluxDB writes. A
// broker outage never blocks sampling: publish errors are returned to the
// caller, which logs them and carries on.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Record("onewire")
//	err = client.Publish(topic, payload, 0, false)
package mqtt
