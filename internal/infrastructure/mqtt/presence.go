package mqtt

import "sync"

// Connectivity is the retained payload of the {name}/connected topic.
type Connectivity string

const (
	// ConnectivityDisconnected is published by the broker as last will.
	ConnectivityDisconnected Connectivity = "0"

	// ConnectivityConnected means the bus is up but no controller has
	// queried the bridge since the last (re)connect.
	ConnectivityConnected Connectivity = "1"

	// ConnectivityActive means a controller has talked to the bridge.
	ConnectivityActive Connectivity = "2"
)

// PublishFunc publishes a retained payload. It must not block.
type PublishFunc func(topic string, payload []byte)

// Presence is the connectivity state machine behind {name}/connected.
//
// Transitions:
//
//	Disconnected --Connected()--> Connected   publishes "1"
//	Connected    --Seen()-------> Active      publishes "2"
//	any          --Disconnected()-> Disconnected (the broker delivers "0")
//
// Seen in any state other than Connected is a no-op, so "2" is published at
// most once per connection.
type Presence struct {
	topic   string
	publish PublishFunc

	mu    sync.Mutex
	state Connectivity
}

// NewPresence creates a Presence in the Disconnected state.
func NewPresence(topic string, publish PublishFunc) *Presence {
	return &Presence{
		topic:   topic,
		publish: publish,
		state:   ConnectivityDisconnected,
	}
}

// Connected records a (re)connect and publishes "1".
func (p *Presence) Connected() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = ConnectivityConnected
	p.publish(p.topic, []byte(ConnectivityConnected))
}

// Seen records an inbound controller request. It reports whether this call
// caused the transition to Active.
func (p *Presence) Seen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != ConnectivityConnected {
		return false
	}
	p.state = ConnectivityActive
	p.publish(p.topic, []byte(ConnectivityActive))
	return true
}

// Disconnected records a lost connection. Nothing is published: the broker
// is responsible for delivering the last will.
func (p *Presence) Disconnected() {
	p.mu.Lock()
	p.state = ConnectivityDisconnected
	p.mu.Unlock()
}

// State returns the current connectivity value.
func (p *Presence) State() Connectivity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
