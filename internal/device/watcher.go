package device

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultReloadDelay is the quiet period after the last file event before
// the device list is reloaded.
const DefaultReloadDelay = 1500 * time.Millisecond

// ReloadFunc is called after every reload attempt with the new snapshot or
// the error that kept the previous one in place.
type ReloadFunc func(snap *Snapshot, err error)

// Watcher reloads a Registry when its device list file changes.
//
// The parent directory is watched rather than the file itself, so editors
// that save by writing a temporary file and renaming it over the original
// keep triggering reloads. A burst of events results in one reload after
// the delay has passed without further events.
type Watcher struct {
	registry *Registry
	path     string
	delay    time.Duration

	onReload ReloadFunc
	logger   Logger

	done chan struct{}
	once sync.Once
}

// NewWatcher creates a watcher for the device list at path.
// A non-positive delay selects DefaultReloadDelay.
func NewWatcher(registry *Registry, path string, delay time.Duration) *Watcher {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}
	return &Watcher{
		registry: registry,
		path:     filepath.Clean(path),
		delay:    delay,
		logger:   noopLogger{},
		done:     make(chan struct{}),
	}
}

// SetLogger sets the logger for the watcher.
func (w *Watcher) SetLogger(logger Logger) {
	w.logger = logger
}

// SetOnReload registers a callback invoked after each reload attempt.
// Must be called before Start.
func (w *Watcher) SetOnReload(fn ReloadFunc) {
	w.onReload = fn
}

// Start begins watching. It returns once the watch is installed; events
// are handled in a background goroutine until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	w.logger.Info("watching device list", "path", w.path, "delay", w.delay)

	go w.loop(ctx, fw)
	return nil
}

// Done is closed when the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	defer w.once.Do(func() { close(w.done) })
	defer fw.Close() //nolint:errcheck // Shutdown

	// Armed by the first relevant event; nil channel blocks until then.
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("device list changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.delay)
				fire = timer.C
			} else {
				timer.Reset(w.delay)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("device list watcher", "error", err)

		case <-fire:
			w.reload()
		}
	}
}

// relevant reports whether event concerns the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op != fsnotify.Chmod
}

func (w *Watcher) reload() {
	w.logger.Info("reloading device list", "path", w.path)

	snap, err := w.registry.Reload(w.path)
	if err != nil {
		w.logger.Error("device list reload failed, keeping previous devices", "error", err)
	}
	if w.onReload != nil {
		w.onReload(snap, err)
	}
}
