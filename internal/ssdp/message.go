package ssdp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strings"
)

// Kind classifies an inbound SSDP datagram.
type Kind string

// Message kinds.
const (
	KindNotify Kind = "notify"
	KindSearch Kind = "search"
	KindFound  Kind = "found"
)

// DiscoverMAN is the MAN header value required on a search, quotes included.
const DiscoverMAN = `"ssdp:discover"`

// Message is a parsed SSDP datagram.
type Message struct {
	Kind      Kind
	StartLine string
	Header    textproto.MIMEHeader
}

// Parse decodes an SSDP datagram: an HTTP-style start line followed by
// MIME headers. Header names are matched case-insensitively.
func Parse(data []byte) (*Message, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(data)))

	line, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	kind, ok := classify(line)
	if !ok {
		return nil, fmt.Errorf("%w: start line %q", ErrMalformed, truncate(line, 64))
	}

	header, err := tp.ReadMIMEHeader()
	// Some stacks omit the terminating blank line; keep what was read.
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if header == nil {
		header = textproto.MIMEHeader{}
	}

	return &Message{Kind: kind, StartLine: line, Header: header}, nil
}

// classify maps a start line to a Kind.
func classify(line string) (Kind, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", false
	}

	switch {
	case strings.EqualFold(fields[0], "NOTIFY"):
		return KindNotify, true
	case strings.EqualFold(fields[0], "M-SEARCH"):
		return KindSearch, true
	case strings.HasPrefix(strings.ToUpper(fields[0]), "HTTP/") && fields[1] == "200":
		return KindFound, true
	default:
		return "", false
	}
}

// Get returns the first value of a header, case-insensitively.
func (m *Message) Get(key string) string {
	return m.Header.Get(key)
}

// IsDiscover reports whether the message is a search that expects a reply:
// a non-empty ST and MAN equal to "ssdp:discover" with its quotes.
func (m *Message) IsDiscover() bool {
	return m.Kind == KindSearch && m.Get("ST") != "" && m.Get("MAN") == DiscoverMAN
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
