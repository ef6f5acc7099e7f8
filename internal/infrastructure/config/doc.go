// Package config handles loading and validating huebridge configuration.
//
// This package manages:
//   - Built-in defaults matching the original alexa2mqtt command line
//   - An optional YAML settings file
//   - Overrides from ALEXA_* environment variables (and a .env file)
//   - Command-line flags with short and long forms
//   - Validation of required fields
//
// Security Considerations:
//   - MQTT and InfluxDB credentials should be set via environment variables
//   - Credentials have no flag form so they never appear in process listings
//
// Usage:
//
//	cfg, err := config.FromArgs(os.Args[1:], os.Getenv)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Bridge.Name)
package config
