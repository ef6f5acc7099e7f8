// Package api implements the Hue control plane of huebridge.
//
// This package provides:
//   - GET /api/{user}/lights: every synthesized light descriptor
//   - GET /api/{user}/lights/{id}: one descriptor (400 when unknown)
//   - PUT /api/{user}/lights/{id}/state: command translation to MQTT
//   - GET <setup path>: the UPnP description document
//   - Middleware stack (request ID, logging, metrics, recovery, body limit)
//
// Every other method or path is answered with 400 and logged at error level.
//
// # Connectivity
//
// Each request to a known route marks the bus as active, so the first
// controller contact after a (re)connect publishes "2" to {name}/connected.
//
// # Graceful Degradation
//
// The server operates without a bus. Reads work and commands are
// acknowledged, but nothing is published.
package api
