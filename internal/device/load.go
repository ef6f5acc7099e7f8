package device

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ListKey is the top-level key holding the device list.
const ListKey = "alexa"

// DefaultMaxFileSize bounds how much of a device list is read (1MB).
const DefaultMaxFileSize int64 = 1 << 20

// document is the on-disk shape of the device list.
//
//	alexa:
//	  - id: "1"
//	    name: Kitchen
//	    switch: {topic: kitchen/set, on: "ON", off: "OFF"}
//	    control: {topic: kitchen/brightness}
//	    color: {topic: kitchen/color}
type document struct {
	Alexa *[]yaml.Node `yaml:"alexa"`
}

// List is a parsed device list.
type List struct {
	Entries []Entry

	// Skipped holds one ErrInvalidEntry error per list item that could not
	// be decoded. Those items are not in Entries.
	Skipped []error
}

// Parse decodes a device list document.
//
// Each list item is decoded on its own, so one malformed item (say a
// `switch:` given as a string) is reported in Skipped and the rest still
// load. Only a document that is not YAML or has no top-level list fails.
//
// Scalar values are taken as strings, so numeric ids and payloads such as
// `id: 1` or `on: 1` are accepted. Id and name checks happen in
// Registry.Rebuild, not here.
func Parse(data []byte) (List, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return List{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	if doc.Alexa == nil {
		return List{}, fmt.Errorf("%w: missing top-level %q list", ErrInvalidDocument, ListKey)
	}

	nodes := *doc.Alexa
	list := List{Entries: make([]Entry, 0, len(nodes))}
	for i := range nodes {
		var e Entry
		if err := nodes[i].Decode(&e); err != nil {
			list.Skipped = append(list.Skipped,
				fmt.Errorf("%w: item %d (line %d): %w", ErrInvalidEntry, i, nodes[i].Line, err))
			continue
		}
		list.Entries = append(list.Entries, e)
	}
	return list, nil
}

// LoadFile reads and parses the device list at path.
// Files larger than maxBytes are rejected without being parsed.
func LoadFile(path string, maxBytes int64) (List, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}

	f, err := os.Open(path)
	if err != nil {
		return List{}, fmt.Errorf("opening device list: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(f, maxBytes+1))
	if err != nil && !errors.Is(err, io.EOF) {
		return List{}, fmt.Errorf("reading device list: %w", err)
	}
	if n > maxBytes {
		return List{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, path, maxBytes)
	}

	return Parse(buf.Bytes())
}
