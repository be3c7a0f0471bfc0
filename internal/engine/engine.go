// Package engine is the reconciliation façade (spec §4.1): it orchestrates
// scanner → resolver → migrator → linkprojector → mcpregistry → snapshot
// assembly → statestore → auditlog behind a process-wide mutex, and
// exposes the read-only query and lifecycle-mutator operations every
// caller (CLI, watcher) goes through.
package engine

import (
	"sync"

	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/preferences"
	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentEngine)

// Engine holds the process-wide sync mutex and the resolved root set (spec
// §5 "Global mutable state": modeled as an explicit value, not an ambient
// singleton).
type Engine struct {
	Roots pathresolver.Roots

	mu sync.Mutex

	snapMu sync.RWMutex
	latest model.Snapshot
}

// New resolves Roots for home/runtimeDir and loads whatever snapshot is
// already on disk as the initial "latest" for read-only queries.
func New(home, runtimeDir string) *Engine {
	roots := pathresolver.New(home, runtimeDir)
	e := &Engine{Roots: roots}
	e.loadLatestFromDisk()
	return e
}

func (e *Engine) loadPreferences() preferences.Preferences {
	p, err := preferences.Load(e.Roots.PreferencesFile())
	if err != nil {
		log.Warn("load preferences: %v", err)
	}
	return p
}

func (e *Engine) savePreferences(p preferences.Preferences) error {
	return preferences.Save(e.Roots.PreferencesFile(), p)
}

func (e *Engine) setLatest(s model.Snapshot) {
	e.snapMu.Lock()
	e.latest = s
	e.snapMu.Unlock()
}

// Latest returns the most recently computed or loaded snapshot.
func (e *Engine) Latest() model.Snapshot {
	e.snapMu.RLock()
	defer e.snapMu.RUnlock()
	return e.latest
}
