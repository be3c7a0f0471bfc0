package mcpregistry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWritePlanMissingFileYieldsEmptyV3Plan(t *testing.T) {
	wp := LoadWritePlan(filepath.Join(t.TempDir(), "nope.json"))
	if wp.Version != WritePlanVersion3 {
		t.Fatalf("expected version %d, got %d", WritePlanVersion3, wp.Version)
	}
	if wp.Targets == nil || len(wp.Targets) != 0 {
		t.Fatalf("expected an empty, non-nil target map, got %v", wp.Targets)
	}
}

func TestSaveAndLoadWritePlanRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	targets := map[string][]string{
		"/home/x/.codex/config.toml": {"global::search"},
	}
	if err := SaveWritePlan(path, targets); err != nil {
		t.Fatalf("SaveWritePlan failed: %v", err)
	}

	wp := LoadWritePlan(path)
	if wp.Version != WritePlanVersion3 {
		t.Fatalf("expected version %d, got %d", WritePlanVersion3, wp.Version)
	}
	if wp.GeneratedAt == "" {
		t.Fatal("expected a generated_at timestamp")
	}
	got := wp.PreviousKeysFor("/home/x/.codex/config.toml")
	if _, ok := got["search"]; !ok {
		t.Fatalf("expected server key 'search' extracted from locator, got %v", got)
	}
}

func TestPreviousKeysForToleratesLegacyV2BareKeys(t *testing.T) {
	wp := WritePlan{
		Version: 2,
		Targets: map[string][]string{"/home/x/.codex/config.toml": {"search"}},
	}
	got := wp.PreviousKeysFor("/home/x/.codex/config.toml")
	if _, ok := got["search"]; !ok {
		t.Fatalf("expected legacy bare key preserved, got %v", got)
	}
}

func TestSortedTargetPathsIsDeterministic(t *testing.T) {
	wp := WritePlan{Targets: map[string][]string{
		"/z": {"a"},
		"/a": {"b"},
	}}
	got := wp.SortedTargetPaths()
	if len(got) != 2 || got[0] != "/a" || got[1] != "/z" {
		t.Fatalf("expected sorted paths, got %v", got)
	}
}

func TestLoadWritePlanCorruptFileYieldsEmptyV3Plan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	wp := LoadWritePlan(path)
	if wp.Version != WritePlanVersion3 || len(wp.Targets) != 0 {
		t.Fatalf("expected a fresh empty v3 plan, got %+v", wp)
	}
}
