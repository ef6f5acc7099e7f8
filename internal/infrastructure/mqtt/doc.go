// Package mqtt provides the message bus client for huebridge.
//
// This package manages:
//   - One long-lived broker connection with paho-managed reconnects
//   - The retained liveness topic {name}/connected ("0", "1", "2")
//   - The last will that publishes "0" when the bridge drops uncleanly
//   - The reserved {name}/set/# subscription
//   - Fire-and-forget publishing of translated light commands
//
// # Liveness
//
//	connect             -> "1" (retained)
//	first HTTP request  -> "2" (retained, once per connection)
//	unclean disconnect  -> "0" (last will, delivered by the broker)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Bridge.Name, log)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.MarkActive()
//	client.PublishAsync("living/light/set", []byte("ON"))
package mqtt
