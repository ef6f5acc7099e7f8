package hue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidCommand is returned when a request body is not a light command.
var ErrInvalidCommand = errors.New("hue: invalid command")

// Command is the body of PUT /api/{user}/lights/{id}/state.
//
// Only the fields that drive translation are modelled. Unknown fields such
// as hue, sat, ct or transitiontime are accepted and ignored.
type Command struct {
	XY  []float64 `json:"xy,omitempty"`
	Bri *float64  `json:"bri,omitempty"`
	On  *bool     `json:"on,omitempty"`
}

// DecodeCommand parses a command body.
//
// The body must be a single JSON object. Known fields with the wrong type
// are rejected.
func DecodeCommand(r io.Reader) (Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Command{}, fmt.Errorf("%w: reading body: %w", ErrInvalidCommand, err)
	}
	return ParseCommand(data)
}

// ParseCommand parses a command from raw bytes. See DecodeCommand.
func ParseCommand(data []byte) (Command, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Command{}, fmt.Errorf("%w: body must be a JSON object", ErrInvalidCommand)
	}

	var cmd Command
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if dec.More() {
		return Command{}, fmt.Errorf("%w: trailing data after object", ErrInvalidCommand)
	}
	return cmd, nil
}

// HasXY reports whether the command carries a usable colour pair.
func (c Command) HasXY() bool {
	return len(c.XY) >= 2
}

// HasBri reports whether the command carries a non-zero brightness.
// Zero is treated as absent.
func (c Command) HasBri() bool {
	return c.Bri != nil && *c.Bri != 0
}

// IsOn reports whether the command explicitly switches the light on.
func (c Command) IsOn() bool {
	return c.On != nil && *c.On
}
