// Package telemetry provides config-driven, category-scoped file logging for
// the reconciliation engine. Logs are written to <runtime>/logs/ with one
// file per component. Logging is controlled by the debug argument passed
// to Configure (the CLI passes its --debug flag) — when false, loggers are
// no-ops.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Component names a logical subsystem of the engine. Each gets its own log
// file so a reader can tail exactly the subsystem they care about.
type Component string

const (
	ComponentScanner     Component = "scanner"
	ComponentResolver    Component = "resolver"
	ComponentMigrator    Component = "migrator"
	ComponentProjector   Component = "projector"
	ComponentMCPRegistry Component = "mcpregistry"
	ComponentLifecycle   Component = "lifecycle"
	ComponentWatcher     Component = "watcher"
	ComponentEngine      Component = "engine"
	ComponentDotagents   Component = "dotagents"
)

// Level is the severity of a single log record.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// record is the newline-delimited JSON shape written to each log file.
type record struct {
	Time      time.Time              `json:"ts"`
	Component Component              `json:"component"`
	Level     Level                  `json:"level"`
	Message   string                 `json:"msg"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// registry owns the per-component file handles and the global debug gate.
type registry struct {
	mu        sync.Mutex
	dir       string
	debug     bool
	configure bool // whether Configure has ever been called
	files     map[Component]*os.File
}

var global = &registry{files: make(map[Component]*os.File)}

// Configure points the telemetry registry at a log directory and sets the
// debug gate. It must be called once at process start (the CLI calls it
// when its --debug flag is set); until then, all loggers are no-ops.
func Configure(logDir string, debug bool) error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if logDir != "" {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return fmt.Errorf("telemetry: create log dir %s: %w", logDir, err)
		}
	}

	for _, f := range global.files {
		_ = f.Close()
	}
	global.files = make(map[Component]*os.File)
	global.dir = logDir
	global.debug = debug
	global.configure = true
	return nil
}

// Close releases any open log file handles. Safe to call even if Configure
// was never called.
func Close() {
	global.mu.Lock()
	defer global.mu.Unlock()
	for _, f := range global.files {
		_ = f.Close()
	}
	global.files = make(map[Component]*os.File)
}

func (r *registry) fileFor(c Component) (*os.File, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.configure || !r.debug || r.dir == "" {
		return nil, false
	}
	if f, ok := r.files[c]; ok {
		return f, true
	}
	path := filepath.Join(r.dir, string(c)+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false
	}
	r.files[c] = f
	return f, true
}

func (r *registry) write(c Component, lvl Level, msg string, fields map[string]interface{}) {
	f, ok := r.fileFor(c)
	if !ok {
		return
	}
	rec := record{Time: time.Now().UTC(), Component: c, Level: lvl, Message: msg, Fields: fields}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	b = append(b, '\n')

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = f.Write(b)
}

// Logger is a thin handle bound to one component.
type Logger struct {
	component Component
}

// Get returns the logger for a component. Loggers are cheap; callers may
// call Get repeatedly rather than holding a package-level variable.
func Get(c Component) Logger { return Logger{component: c} }

func (l Logger) log(lvl Level, format string, args ...interface{}) {
	global.write(l.component, lvl, fmt.Sprintf(format, args...), nil)
}

// Debug logs a debug-level record.
func (l Logger) Debug(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }

// Info logs an info-level record.
func (l Logger) Info(format string, args ...interface{}) { l.log(LevelInfo, format, args...) }

// Warn logs a warn-level record.
func (l Logger) Warn(format string, args ...interface{}) { l.log(LevelWarn, format, args...) }

// Error logs an error-level record.
func (l Logger) Error(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// WithFields logs at level lvl with structured fields attached, useful for
// recording path lists and counts without stringifying them into the
// message.
func (l Logger) WithFields(lvl Level, msg string, fields map[string]interface{}) {
	global.write(l.component, lvl, msg, fields)
}
