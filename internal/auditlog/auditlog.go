// Package auditlog implements the append-only, ring-bounded structured
// event log at <runtime>/audit.log.json (spec §4.7, §6, §8): every
// reconciliation and every lifecycle mutator appends one event; the log
// never shrinks except by ring eviction at its tail, and no existing
// event is ever rewritten.
//
// Grounded in this module's statestore sibling for the atomic whole-file
// rewrite mechanics; the ring-eviction policy has no teacher analog and is
// implemented directly from spec §6's "default ring cap of 5000" note.
package auditlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultCap is the default number of most-recent events retained.
const DefaultCap = 5000

// Status is the outcome recorded for one audit event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusBlocked Status = "blocked"
)

// Event is one structured audit record (spec §6).
type Event struct {
	ID         string   `json:"id"`
	OccurredAt string   `json:"occurred_at"`
	Action     string   `json:"action"`
	Status     Status   `json:"status"`
	Trigger    string   `json:"trigger,omitempty"`
	Summary    string   `json:"summary"`
	Paths      []string `json:"paths,omitempty"`
	Details    string   `json:"details,omitempty"`
}

// Log is the persisted shape of the audit log file.
type Log struct {
	Version int     `json:"version"`
	Events  []Event `json:"events"`
}

// NewEvent stamps a new event with a fresh id and the current time.
func NewEvent(action string, status Status, trigger, summary string, paths []string, details string) Event {
	return Event{
		ID:         "evt-" + uuid.New().String(),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Action:     action,
		Status:     status,
		Trigger:    trigger,
		Summary:    summary,
		Paths:      paths,
		Details:    details,
	}
}

// Load reads the audit log, tolerating a missing or corrupt file as an
// empty, version-1 log.
func Load(path string) (Log, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Log{Version: 1}, nil
		}
		return Log{}, fmt.Errorf("auditlog: read %s: %w", path, err)
	}
	var l Log
	if err := json.Unmarshal(data, &l); err != nil {
		return Log{Version: 1}, nil
	}
	if l.Version == 0 {
		l.Version = 1
	}
	return l, nil
}

// Append adds event to the log at path, evicting from the tail (oldest
// first) down to cap if the log would otherwise exceed it, then rewrites
// the whole file atomically.
func Append(path string, event Event, cap int) error {
	l, err := Load(path)
	if err != nil {
		return err
	}

	l.Events = append(l.Events, event)
	if cap > 0 && len(l.Events) > cap {
		l.Events = l.Events[len(l.Events)-cap:]
	}

	return save(path, l)
}

func save(path string, l Log) error {
	out, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("auditlog: marshal: %w", err)
	}
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("auditlog: create dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("auditlog: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
