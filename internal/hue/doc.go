// Package hue models the small part of the Philips Hue REST protocol that
// huebridge speaks: the inbound light state command, its translation into
// a single MQTT publish, and the fixed success acknowledgement.
//
// Translation is an exclusive decision. Exactly one of the following is
// chosen, in this order:
//
//	xy present          -> {"x":X,"y":Y} to the color topic
//	bri present         -> bri/2.55 as text to the control topic
//	on == true          -> switch.on to the switch topic
//	anything else       -> switch.off to the switch topic
//
// A missing capability block yields no publish at all. The controller still
// receives a success acknowledgement.
package hue
