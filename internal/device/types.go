package device

// Entry is one logical device from the device list.
//
// Capability blocks are optional. A nil block means commands of that kind
// are ignored for the device.
type Entry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	Switch  *SwitchCapability `yaml:"switch,omitempty"`
	Control *TopicCapability  `yaml:"control,omitempty"`
	Color   *TopicCapability  `yaml:"color,omitempty"`
}

// SwitchCapability maps on/off commands to a topic and two payloads.
type SwitchCapability struct {
	Topic string `yaml:"topic"`
	On    string `yaml:"on"`
	Off   string `yaml:"off"`
}

// TopicCapability is a capability that only needs a destination topic.
// Used for dimming (control) and colour.
type TopicCapability struct {
	Topic string `yaml:"topic"`
}

// clone returns a copy that shares no pointers with e.
func (e Entry) clone() Entry {
	cpy := e
	if e.Switch != nil {
		s := *e.Switch
		cpy.Switch = &s
	}
	if e.Control != nil {
		c := *e.Control
		cpy.Control = &c
	}
	if e.Color != nil {
		c := *e.Color
		cpy.Color = &c
	}
	return cpy
}

// Descriptor is the light record returned to controllers.
//
// It is synthesized from the entry name only. State is a fixed default and
// never reflects what the real device is doing. Every field is always
// serialised.
type Descriptor struct {
	State     LightState `json:"state"`
	Type      string     `json:"type"`
	Name      string     `json:"name"`
	ModelID   string     `json:"modelid"`
	SWVersion string     `json:"swversion"`
}

// LightState is the state block of a Descriptor.
type LightState struct {
	On        bool       `json:"on"`
	Bri       int        `json:"bri"`
	Hue       int        `json:"hue"`
	Sat       int        `json:"sat"`
	XY        [2]float64 `json:"xy"`
	CT        int        `json:"ct"`
	Alert     string     `json:"alert"`
	Effect    string     `json:"effect"`
	ColorMode string     `json:"colormode"`
	Reachable bool       `json:"reachable"`
}

// Fixed descriptor values for an extended colour light.
const (
	LightType      = "Extended color light"
	LightModelID   = "LCT001"
	LightSWVersion = "66009461"
)

// NewDescriptor builds the default descriptor for a light called name.
func NewDescriptor(name string) Descriptor {
	return Descriptor{
		State: LightState{
			Alert:     "none",
			Effect:    "none",
			ColorMode: "hs",
			Reachable: true,
		},
		Type:      LightType,
		Name:      name,
		ModelID:   LightModelID,
		SWVersion: LightSWVersion,
	}
}
