// Package logging provides structured logging for huebridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the bridge.
//
// # Configuration
//
// The level comes from the -v flag (or ALEXA_VERBOSE); format and output
// from the logging section of the settings file:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting bridge", "port", 8082)
//	logger.Error("failed to bind", "error", err)
//
// Never log MQTT or InfluxDB credentials.
package logging
