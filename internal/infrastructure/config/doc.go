// Package config handles loading and validating w1logger configuration.
//
// This package manages:
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables (W1LOGGER_*)
//   - Overriding with command-line flags via Override funcs
//   - Validation of required fields
//
// Security Considerations:
//   - InfluxDB and MQTT credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("/etc/w1logger.yaml", func(c *config.Config) {
//	    c.Sensors.List = "/etc/w1logger/sensors.txt"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.InfluxDB.Database)
package config
