package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID is not in the current snapshot.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrInvalidDocument is returned when the device list cannot be parsed
	// or has no top-level list.
	ErrInvalidDocument = errors.New("device: invalid device list")

	// ErrInvalidEntry marks one device list item that was skipped.
	ErrInvalidEntry = errors.New("device: invalid device entry")

	// ErrFileTooLarge is returned when the device list exceeds the size bound.
	ErrFileTooLarge = errors.New("device: device list too large")
)
