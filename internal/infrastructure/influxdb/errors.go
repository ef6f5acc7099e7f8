package influxdb

import "errors"

// Errors returned by Connect and passed to the SetOnError callback.
var (
	// ErrConnectionFailed means the server did not answer the startup ping.
	// Telemetry stays off for the life of the process.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed wraps a batch the server rejected. It only ever
	// reaches the SetOnError callback, never a command response.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
