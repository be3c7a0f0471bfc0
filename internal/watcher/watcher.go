// Package watcher implements the multi-root filesystem watcher that
// drives automatic reconciliation (spec §4.8).
//
// Grounded directly in the teacher's internal/core.MangleWatcher: the same
// fsnotify event loop, debounce-via-ticker shape, and stop/done channel
// cooperative shutdown, generalized from one fixed mangle directory to an
// arbitrary, dynamically supplied set of root paths (skill/subagent roots,
// the central catalog, and every host config file), and from a
// suffix-filtered "validate this file" reaction to a single debounced
// "something changed" signal.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentWatcher)

// DebounceWindow is the idle period after which a settled burst of events
// triggers one reconciliation (spec §4.8).
const DebounceWindow = 800 * time.Millisecond

// pollInterval is how often the debounce ticker checks for a settled
// burst, and the bound within which Stop must take effect (spec §5).
const pollInterval = 250 * time.Millisecond

// Watcher observes a fixed set of paths and emits a debounced change
// signal on Changes(). Paths that don't exist at Start time are watched at
// their nearest existing ancestor, non-recursively.
type Watcher struct {
	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	changes chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool

	lastEvent time.Time
	pending   bool
}

// New creates a Watcher; call Start with the paths to observe.
func New() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:     fsw,
		changes: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Changes returns the channel on which one value is sent per debounced
// burst of filesystem activity. Buffered to one: a pending signal coalesces
// with any further activity until the consumer drains it.
func (w *Watcher) Changes() <-chan struct{} { return w.changes }

// Start begins watching paths (spec §4.8: the union of every per-scope
// root, the central catalog file, and every host config file). For a path
// that does not currently exist, the nearest existing ancestor is watched
// instead.
func (w *Watcher) Start(paths []string) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	watched := make(map[string]struct{})
	for _, p := range paths {
		target := nearestExistingAncestor(p)
		if target == "" {
			continue
		}
		if _, already := watched[target]; already {
			continue
		}
		if err := w.fsw.Add(target); err != nil {
			log.Warn("watch %s failed: %v", target, err)
			continue
		}
		watched[target] = struct{}{}
	}
	log.Info("watching %d paths (from %d requested)", len(watched), len(paths))

	go w.run()
	return nil
}

// Stop signals the watcher loop to exit and waits for it to finish,
// within one poll window (spec §5). On a watcher that is not running it
// only closes the underlying fsnotify watcher created by New.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.fsw.Close()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.fsw.Close(); err != nil {
		log.Error("closing watcher: %v", err)
	}
	log.Info("stopped")
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.recordEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Error("watch error: %v", err)

		case <-ticker.C:
			w.maybeFire()
		}
	}
}

func (w *Watcher) recordEvent(event fsnotify.Event) {
	w.mu.Lock()
	w.lastEvent = time.Now()
	w.pending = true
	w.mu.Unlock()
	log.Debug("event %s %s", event.Op, event.Name)
}

func (w *Watcher) maybeFire() {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastEvent) < DebounceWindow {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	select {
	case w.changes <- struct{}{}:
	default:
	}
}

// nearestExistingAncestor walks up from path until it finds a directory or
// file that exists, or returns "" if none of the ancestors do (e.g. path
// is relative to a home directory that itself doesn't exist in a test
// sandbox).
func nearestExistingAncestor(path string) string {
	cur := path
	for {
		if _, err := os.Lstat(cur); err == nil {
			return cur
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
