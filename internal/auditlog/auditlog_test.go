package auditlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsEmptyLog(t *testing.T) {
	l, err := Load(filepath.Join(t.TempDir(), "audit.log.json"))
	if err != nil {
		t.Fatalf("Load of a missing file must not error, got %v", err)
	}
	if l.Version != 1 || len(l.Events) != 0 {
		t.Fatalf("expected empty version-1 log, got %+v", l)
	}
}

func TestLoadCorruptFileReturnsEmptyLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load of a corrupt file must not error, got %v", err)
	}
	if l.Version != 1 || len(l.Events) != 0 {
		t.Fatalf("expected empty version-1 log on parse failure, got %+v", l)
	}
}

func TestNewEventIDIsPrefixed(t *testing.T) {
	e := NewEvent("run_sync", StatusSuccess, "manual", "synced 3 skills", nil, "")
	if !strings.HasPrefix(e.ID, "evt-") {
		t.Fatalf("expected event id to be prefixed evt-, got %s", e.ID)
	}
	if e.OccurredAt == "" {
		t.Fatal("expected a non-empty timestamp")
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log.json")
	for i := 0; i < 3; i++ {
		e := NewEvent("run_sync", StatusSuccess, "manual", "event", nil, "")
		e.ID = e.ID + "-" + string(rune('a'+i))
		if err := Append(path, e, DefaultCap); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(l.Events))
	}
	for i, want := range []string{"a", "b", "c"} {
		if !strings.HasSuffix(l.Events[i].ID, want) {
			t.Fatalf("event %d out of order: %+v", i, l.Events)
		}
	}
}

func TestAppendEvictsOldestPastCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log.json")
	const cap = 3
	for i := 0; i < 5; i++ {
		e := NewEvent("run_sync", StatusSuccess, "manual", "event", nil, "")
		e.ID = "evt-" + string(rune('0'+i))
		if err := Append(path, e, cap); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	l, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Events) != cap {
		t.Fatalf("expected ring to be bounded at %d, got %d", cap, len(l.Events))
	}
	if l.Events[0].ID != "evt-2" || l.Events[cap-1].ID != "evt-4" {
		t.Fatalf("expected the oldest events to be evicted first, got %+v", l.Events)
	}
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runtime", "audit.log.json")
	if err := Append(path, NewEvent("run_sync", StatusFailed, "manual", "boom", nil, "disk full"), DefaultCap); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected audit log file to be created: %v", err)
	}
}
