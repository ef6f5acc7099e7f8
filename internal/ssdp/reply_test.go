package ssdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocationTemplate(t *testing.T) {
	assert.Equal(t,
		"http://{{networkInterfaceAddress}}:8082/upnp/amazon-ha-bridge/setup.xml",
		LocationTemplate(8082, "/upnp/amazon-ha-bridge/setup.xml"))
	assert.Equal(t, "http://{{networkInterfaceAddress}}:80/setup.xml", LocationTemplate(80, "setup.xml"))
}

func TestReply_Render(t *testing.T) {
	r := Reply{
		NT:       "urn:schemas-upnp-org:device:basic:1",
		Server:   "node.js/0.10.28 UPnP/1.1",
		ST:       "urn:schemas-upnp-org:device:basic:1",
		USN:      "uuid:Socket-1_0-221438K0100073::urn:Belkin:device:**",
		Location: LocationTemplate(8082, "/upnp/amazon-ha-bridge/setup.xml"),
	}

	want := "HTTP/1.1 200 OK\r\n" +
		"NT: urn:schemas-upnp-org:device:basic:1\r\n" +
		"SERVER: node.js/0.10.28 UPnP/1.1\r\n" +
		"ST: urn:schemas-upnp-org:device:basic:1\r\n" +
		"USN: uuid:Socket-1_0-221438K0100073::urn:Belkin:device:**\r\n" +
		"LOCATION: http://192.168.1.20:8082/upnp/amazon-ha-bridge/setup.xml\r\n" +
		"\r\n"

	assert.Equal(t, want, string(r.Render("192.168.1.20")))
}

func TestReply_RenderIPv6Host(t *testing.T) {
	r := Reply{Location: LocationTemplate(8082, "/setup.xml")}

	assert.Contains(t, string(r.Render("fe80::1")), "LOCATION: http://[fe80::1]:8082/setup.xml\r\n")
}
