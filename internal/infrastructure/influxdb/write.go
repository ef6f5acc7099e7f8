package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	// MeasurementCommand holds one point per translated light command.
	MeasurementCommand = "light_commands"

	// MeasurementConnectivity holds the {name}/connected transitions.
	MeasurementConnectivity = "bridge_connectivity"
)

// WriteCommand records one translated light command.
//
// Tags: device_id, kind. Fields: topic, payload, published.
// published is false when the device had no matching capability.
//
// Example:
//
//	client.WriteCommand("1", "brightness", "kitchen/brightness", []byte("49.8"), true)
func (c *Client) WriteCommand(deviceID, kind, topic string, payload []byte, published bool) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(commandPoint(deviceID, kind, topic, payload, published, time.Now()))
}

// WriteConnectivity records a bus connectivity value ("0", "1" or "2").
func (c *Client) WriteConnectivity(bridge, value string) {
	if !c.IsConnected() {
		return
	}
	c.WritePoint(MeasurementConnectivity,
		map[string]string{"bridge": bridge},
		map[string]interface{}{"value": value},
	)
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func commandPoint(deviceID, kind, topic string, payload []byte, published bool, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCommand,
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		map[string]interface{}{
			"topic":     topic,
			"payload":   string(payload),
			"published": published,
		},
		ts,
	)
}
