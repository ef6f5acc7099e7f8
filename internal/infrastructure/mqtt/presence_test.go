package mqtt

import (
	"testing"
)

type recorder struct {
	topics   []string
	payloads []string
}

func (r *recorder) publish(topic string, payload []byte) {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, string(payload))
}

func TestPresence_Transitions(t *testing.T) {
	rec := &recorder{}
	p := NewPresence("fakehue/connected", rec.publish)

	if p.State() != ConnectivityDisconnected {
		t.Fatalf("initial State() = %q, want %q", p.State(), ConnectivityDisconnected)
	}

	if p.Seen() {
		t.Error("Seen() while disconnected = true, want false")
	}

	p.Connected()
	if !p.Seen() {
		t.Error("first Seen() after Connected() = false, want true")
	}
	if p.Seen() {
		t.Error("second Seen() = true, want false")
	}
	if p.State() != ConnectivityActive {
		t.Errorf("State() = %q, want %q", p.State(), ConnectivityActive)
	}

	p.Disconnected()
	if p.State() != ConnectivityDisconnected {
		t.Errorf("State() after Disconnected() = %q, want %q", p.State(), ConnectivityDisconnected)
	}

	want := []string{"1", "2"}
	if len(rec.payloads) != len(want) {
		t.Fatalf("payloads = %v, want %v", rec.payloads, want)
	}
	for i := range want {
		if rec.payloads[i] != want[i] {
			t.Errorf("payloads[%d] = %q, want %q", i, rec.payloads[i], want[i])
		}
		if rec.topics[i] != "fakehue/connected" {
			t.Errorf("topics[%d] = %q", i, rec.topics[i])
		}
	}
}
