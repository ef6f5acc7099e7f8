package device

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Snapshot is one complete generation of the device list.
//
// A Snapshot is immutable once published by the Registry: both maps are
// built together and never modified afterwards.
type Snapshot struct {
	// Generation increases by one with every rebuild. The empty snapshot a
	// Registry starts with is generation 0.
	Generation uint64

	// Descriptors is the read model returned to controllers.
	Descriptors map[string]Descriptor

	// Capabilities is the write model used for command translation.
	Capabilities map[string]Entry
}

// Registry holds the current device Snapshot.
//
// Rebuilds construct a new Snapshot off to the side and publish it with a
// single atomic store. Readers always see either the previous or the new
// generation, never a mix of both.
//
// All public methods are thread-safe.
type Registry struct {
	current atomic.Pointer[Snapshot]

	// buildMu serialises rebuilds so generations are strictly ordered.
	buildMu sync.Mutex

	maxFileSize int64
	logger      Logger
}

// NewRegistry creates a registry holding an empty generation-0 snapshot.
func NewRegistry() *Registry {
	r := &Registry{
		maxFileSize: DefaultMaxFileSize,
		logger:      noopLogger{},
	}
	r.current.Store(&Snapshot{
		Descriptors:  map[string]Descriptor{},
		Capabilities: map[string]Entry{},
	})
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetMaxFileSize sets the size bound used by Reload.
func (r *Registry) SetMaxFileSize(n int64) {
	if n > 0 {
		r.maxFileSize = n
	}
}

// Rebuild replaces the current snapshot with one built from entries.
//
// Invalid entries are skipped rather than failing the rebuild:
//   - an entry without an id is dropped with a warning
//   - a repeated id keeps the first occurrence and warns
//   - an entry without a name is named after its id
//
// Returns the newly published snapshot.
func (r *Registry) Rebuild(entries []Entry) *Snapshot {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	prev := r.current.Load()
	next := &Snapshot{
		Generation:   prev.Generation + 1,
		Descriptors:  make(map[string]Descriptor, len(entries)),
		Capabilities: make(map[string]Entry, len(entries)),
	}

	for i, e := range entries {
		if e.ID == "" {
			r.logger.Warn("device entry skipped: missing id", "index", i, "name", e.Name)
			continue
		}
		if _, dup := next.Capabilities[e.ID]; dup {
			r.logger.Warn("device entry skipped: duplicate id", "index", i, "id", e.ID)
			continue
		}
		if e.Name == "" {
			e.Name = e.ID
		}

		r.logger.Debug("device entry",
			"id", e.ID,
			"name", e.Name,
			"switch", e.Switch != nil,
			"control", e.Control != nil,
			"color", e.Color != nil,
		)

		next.Capabilities[e.ID] = e.clone()
		next.Descriptors[e.ID] = NewDescriptor(e.Name)
	}

	r.current.Store(next)
	r.logger.Info("device registry rebuilt", "generation", next.Generation, "count", len(next.Descriptors))
	return next
}

// Reload reads the device list at path and rebuilds from it.
//
// Items that fail to decode are logged and left out; the others are used.
// On a read error or an unparsable document the current snapshot is left
// untouched and the error is returned for the caller to log.
func (r *Registry) Reload(path string) (*Snapshot, error) {
	list, err := LoadFile(path, r.maxFileSize)
	if err != nil {
		return nil, fmt.Errorf("reloading %s: %w", path, err)
	}
	for _, skipped := range list.Skipped {
		r.logger.Warn("device entry skipped", "path", path, "error", skipped)
	}
	return r.Rebuild(list.Entries), nil
}

// Current returns the last published snapshot.
// Callers must treat it as read-only.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Lights returns a copy of every descriptor keyed by device id.
func (r *Registry) Lights() map[string]Descriptor {
	return maps.Clone(r.current.Load().Descriptors)
}

// Describe returns the descriptor for id.
// Returns ErrDeviceNotFound if id is not in the current snapshot.
func (r *Registry) Describe(id string) (Descriptor, error) {
	d, ok := r.current.Load().Descriptors[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	return d, nil
}

// Capabilities returns the capability blocks for id.
// Returns ErrDeviceNotFound if id is not in the current snapshot.
// The returned entry is a copy; callers can safely modify it.
func (r *Registry) Capabilities(id string) (Entry, error) {
	e, ok := r.current.Load().Capabilities[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrDeviceNotFound, id)
	}
	return e.clone(), nil
}

// Len returns the number of devices in the current snapshot.
func (r *Registry) Len() int {
	return len(r.current.Load().Descriptors)
}
