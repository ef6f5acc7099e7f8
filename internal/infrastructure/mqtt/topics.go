package mqtt

import "strings"

// Topics builds the bridge's own topics under its instance name.
//
//	topics := mqtt.NewTopics("fakehue")
//	topics.Connected() // "fakehue/connected"
//	topics.SetAll()    // "fakehue/set/#"
type Topics struct {
	name string
}

// NewTopics returns topic builders rooted at the instance name.
func NewTopics(name string) Topics {
	return Topics{name: name}
}

// Connected returns the retained connectivity topic.
//
// Example: fakehue/connected
func (t Topics) Connected() string {
	return t.name + "/connected"
}

// SetAll returns the wildcard pattern for the inbound control namespace.
//
// Pattern: fakehue/set/#
func (t Topics) SetAll() string {
	return t.name + "/set/#"
}

// ValidatePublishTopic checks that topic can be published to: it must be
// non-empty and free of wildcards.
func ValidatePublishTopic(topic string) error {
	if topic == "" || strings.ContainsAny(topic, "+#") {
		return ErrInvalidTopic
	}
	return nil
}
