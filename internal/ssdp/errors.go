package ssdp

import "errors"

// Domain errors for the ssdp package.
var (
	// ErrMalformed is returned when a datagram is not an SSDP message.
	ErrMalformed = errors.New("ssdp: malformed message")

	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("ssdp: responder already started")

	// ErrBind is returned when the discovery socket cannot be set up.
	ErrBind = errors.New("ssdp: bind failed")
)
