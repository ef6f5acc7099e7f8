// Package influxdb provides optional command telemetry for huebridge.
//
// It wraps the official influxdb-client-go v2 library. When enabled, every
// light command the control plane translates is written as one point to
// the light_commands measurement, and connectivity transitions to
// bridge_connectivity. This gives a history of what controllers asked for,
// which the bridge itself does not keep.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteCommand("1", "on", "kitchen/set", []byte("ON"), true)
//
// # Error Handling
//
// Writes are non-blocking and batched (batch_size, flush_interval). Write
// failures are delivered to the SetOnError callback and never reach the
// caller. Only Connect returns errors.
package influxdb
