// Package ssdp implements the discovery side of huebridge: a minimal SSDP
// peer that makes the bridge visible to Hue-aware controllers on the LAN.
//
// The Responder joins the SSDP multicast group and handles three kinds of
// datagram:
//
//	NOTIFY            logged
//	M-SEARCH          answered with one unicast 200 OK when ST is set and
//	                  MAN is "ssdp:discover"
//	HTTP/1.1 200 OK   logged
//
// Anything else, including datagrams that do not parse, is dropped.
//
// The LOCATION header of a reply points at the control plane's setup.xml.
// Its host is resolved per reply from the interface the search arrived on,
// so a multi-homed host advertises an address the searcher can reach.
package ssdp
