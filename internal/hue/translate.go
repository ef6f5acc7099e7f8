package hue

import (
	"encoding/json"
	"strconv"

	"github.com/nerrad567/huebridge/internal/device"
)

// Kind identifies which branch of the translation was taken.
type Kind string

// Translation kinds.
const (
	KindColor      Kind = "color"
	KindBrightness Kind = "brightness"
	KindOn         Kind = "on"
	KindOff        Kind = "off"
)

// brightnessScale converts the protocol's 0-255 brightness to a percentage.
const brightnessScale = 2.55

// Action is one MQTT publish produced from a command.
type Action struct {
	Kind    Kind
	Topic   string
	Payload []byte
}

// colorPayload is the JSON published to a color topic.
type colorPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Classify returns the translation branch for cmd without looking at
// device capabilities.
func Classify(cmd Command) Kind {
	switch {
	case cmd.HasXY():
		return KindColor
	case cmd.HasBri():
		return KindBrightness
	case cmd.IsOn():
		return KindOn
	default:
		return KindOff
	}
}

// Translate turns cmd into at most one publish for a device with caps.
//
// The branch is chosen by Classify alone; capabilities never change which
// branch is taken. When the chosen branch needs a capability block the
// device does not have, or whose topic is empty, ok is false and nothing
// should be published.
func Translate(cmd Command, caps device.Entry) (Action, bool) {
	kind := Classify(cmd)

	switch kind {
	case KindColor:
		if caps.Color == nil || caps.Color.Topic == "" {
			return Action{Kind: kind}, false
		}
		payload, err := json.Marshal(colorPayload{X: cmd.XY[0], Y: cmd.XY[1]})
		if err != nil {
			// NaN and Inf cannot reach here from a JSON body.
			return Action{Kind: kind}, false
		}
		return Action{Kind: kind, Topic: caps.Color.Topic, Payload: payload}, true

	case KindBrightness:
		if caps.Control == nil || caps.Control.Topic == "" {
			return Action{Kind: kind}, false
		}
		return Action{Kind: kind, Topic: caps.Control.Topic, Payload: []byte(FormatBrightness(*cmd.Bri))}, true

	case KindOn:
		if caps.Switch == nil || caps.Switch.Topic == "" {
			return Action{Kind: kind}, false
		}
		return Action{Kind: kind, Topic: caps.Switch.Topic, Payload: []byte(caps.Switch.On)}, true

	default:
		if caps.Switch == nil || caps.Switch.Topic == "" {
			return Action{Kind: kind}, false
		}
		return Action{Kind: kind, Topic: caps.Switch.Topic, Payload: []byte(caps.Switch.Off)}, true
	}
}

// FormatBrightness scales a 0-255 brightness to a 0-100 percentage string
// using the shortest representation that round-trips, e.g. 127 -> "49.80392156862745".
func FormatBrightness(bri float64) string {
	return strconv.FormatFloat(bri/brightnessScale, 'f', -1, 64)
}
