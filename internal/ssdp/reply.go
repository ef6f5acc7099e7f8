package ssdp

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// AddressPlaceholder is replaced in Location with the responding
// interface address when a reply is rendered.
const AddressPlaceholder = "{{networkInterfaceAddress}}"

// Reply is the fixed header block sent in answer to a discover search.
type Reply struct {
	NT       string
	Server   string
	ST       string
	USN      string
	Location string
}

// LocationTemplate builds the LOCATION value for a control plane on port
// serving its description document at path.
//
// Example: http://{{networkInterfaceAddress}}:8082/upnp/amazon-ha-bridge/setup.xml
func LocationTemplate(port int, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + AddressPlaceholder + ":" + strconv.Itoa(port) + path
}

// Render returns the wire form of the reply with host substituted into
// the location.
func (r Reply) Render(host string) []byte {
	if ip := net.ParseIP(host); ip != nil && ip.To4() == nil {
		host = "[" + host + "]"
	}

	var b bytes.Buffer
	b.WriteString("HTTP/1.1 200 OK\r\n")
	writeHeader(&b, "NT", r.NT)
	writeHeader(&b, "SERVER", r.Server)
	writeHeader(&b, "ST", r.ST)
	writeHeader(&b, "USN", r.USN)
	writeHeader(&b, "LOCATION", strings.ReplaceAll(r.Location, AddressPlaceholder, host))
	b.WriteString("\r\n")
	return b.Bytes()
}

func writeHeader(b *bytes.Buffer, key, value string) {
	fmt.Fprintf(b, "%s: %s\r\n", key, value)
}
