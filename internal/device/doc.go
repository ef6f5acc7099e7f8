// Package device provides the Device Registry for huebridge.
//
// The registry maps controller-facing light ids to two things:
//   - a synthesized Descriptor returned by the Hue lights endpoints
//   - the Entry capability blocks (switch, control, color) used to turn
//     commands into MQTT publishes
//
// # Architecture
//
//	┌──────────────┐   LoadFile    ┌──────────────┐   Rebuild   ┌──────────────┐
//	│ config.yml   │──────────────▶│     List     │────────────▶│   Snapshot   │
//	│ (alexa: ...) │               └──────────────┘             │ Descriptors  │
//	└──────┬───────┘                                            │ Capabilities │
//	       │ fsnotify (debounced)                               └──────┬───────┘
//	┌──────┴───────┐                                                   │ atomic swap
//	│   Watcher    │─────────── Registry.Reload ───────────────────────▶│
//	└──────────────┘                                            ┌──────┴───────┐
//	                                                            │   Registry   │
//	                                                            │ Describe     │
//	                                                            │ Capabilities │
//	                                                            │ Lights       │
//	                                                            └──────────────┘
//
// # Thread Safety
//
// Readers never lock. Each rebuild produces a fresh Snapshot and publishes
// it with one atomic store, so a request sees one whole generation.
// A failed reload leaves the previous generation in place; a malformed
// list item is skipped on its own and the rest of the list still loads.
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetLogger(log)
//	if _, err := reg.Reload("config.yml"); err != nil {
//	    log.Error("loading devices", "error", err)
//	}
//
//	w := device.NewWatcher(reg, "config.yml", device.DefaultReloadDelay)
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
package device
