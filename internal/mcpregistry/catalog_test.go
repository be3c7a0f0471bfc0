package mcpregistry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillssync/internal/model"
)

func TestLoadCatalogMissingFileYieldsNil(t *testing.T) {
	entries, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadCatalog must not error on a missing file, got %v", err)
	}
	if entries != nil {
		t.Fatalf("expected nil entries, got %v", entries)
	}
}

func TestSaveAndLoadCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	entries := []CatalogEntry{
		{
			CatalogID: "global::search",
			Scope:     model.ScopeGlobal,
			ServerKey: "search",
			Transport: model.TransportStdio,
			Command:   "search-mcp",
			Args:      []string{"--port", "9000"},
			Env:       map[string]string{"API_KEY": "${SEARCH_API_KEY}"},
			Enabled:   model.AgentEnablement{Codex: true, Claude: true},
		},
	}

	changed, err := SaveCatalog(path, entries)
	if err != nil {
		t.Fatalf("SaveCatalog failed: %v", err)
	}
	if !changed {
		t.Fatal("expected the first save to report a change")
	}

	got, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	e := got[0]
	if e.CatalogID != "global::search" || e.ServerKey != "search" || e.Command != "search-mcp" {
		t.Fatalf("round trip mismatch: %+v", e)
	}
	if !e.Enabled.Codex || !e.Enabled.Claude || e.Enabled.Project {
		t.Fatalf("unexpected enablement: %+v", e.Enabled)
	}
	if len(e.Args) != 2 || e.Args[0] != "--port" {
		t.Fatalf("unexpected args: %v", e.Args)
	}
	if e.Env["API_KEY"] != "${SEARCH_API_KEY}" {
		t.Fatalf("unexpected env: %v", e.Env)
	}
}

func TestSaveCatalogSkipsWriteWhenUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	entries := []CatalogEntry{{CatalogID: "global::a", Scope: model.ScopeGlobal, ServerKey: "a", Transport: model.TransportStdio}}

	if _, err := SaveCatalog(path, entries); err != nil {
		t.Fatal(err)
	}
	changed, err := SaveCatalog(path, entries)
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("expected no change on an identical re-save")
	}
}

func TestSaveCatalogPreservesSurroundingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := SaveCatalog(path, nil); err != nil {
		t.Fatal(err)
	}
	// Simulate hand-edited content outside the managed block.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	withExtra := "# a user comment\n" + string(raw)
	if err := os.WriteFile(path, []byte(withExtra), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := SaveCatalog(path, []CatalogEntry{{CatalogID: "global::a", Scope: model.ScopeGlobal, ServerKey: "a", Transport: model.TransportStdio}}); err != nil {
		t.Fatal(err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(after), "# a user comment") {
		t.Fatal("expected surrounding content preserved")
	}
}
