package hue

// Acknowledgement is the response body of a state command.
//
//	[{"success":{"/lights/1/state/on":true}}]
type Acknowledgement []map[string]map[string]bool

// Acknowledge returns the fixed success acknowledgement for light id.
// It does not reflect what was actually applied.
func Acknowledge(id string) Acknowledgement {
	return Acknowledgement{
		{"success": {"/lights/" + id + "/state/on": true}},
	}
}
