package mcpregistry

import (
	"testing"

	"skillssync/internal/model"
)

func TestBootstrapMergesNonConflictingSources(t *testing.T) {
	discovered := []DiscoveredServer{
		{Source: SourceCodexGlobal, ServerKey: "search", Scope: model.ScopeGlobal, Transport: model.TransportStdio, Command: "search-mcp", Enabled: true},
		{Source: SourceClaudeUserGlobal, ServerKey: "search", Scope: model.ScopeGlobal, Transport: model.TransportStdio, Command: "search-mcp", Enabled: true},
	}

	entries, warnings := Bootstrap(discovered)
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings for agreeing sources, got %v", warnings)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one merged entry, got %d", len(entries))
	}
	e := entries[0]
	if !e.Enabled.Codex || !e.Enabled.Claude {
		t.Fatalf("expected both agent flags OR'd in, got %+v", e.Enabled)
	}
	if e.Enabled.Project {
		t.Fatal("a global entry must always have project = false")
	}
}

func TestBootstrapWarnsOnConflictingDefinitionsAndPriorityWins(t *testing.T) {
	discovered := []DiscoveredServer{
		{Source: SourceClaudeUserGlobal, ServerKey: "search", Scope: model.ScopeGlobal, Command: "old-binary", Enabled: true},
		{Source: SourceCodexGlobal, ServerKey: "search", Scope: model.ScopeGlobal, Command: "new-binary", Enabled: true},
	}

	entries, warnings := Bootstrap(discovered)
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one conflict warning, got %v", warnings)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry despite conflict, got %d", len(entries))
	}
	// codex-global (priority index 3) outranks claude-user-global (index 4):
	// lower index wins, so the codex-global definition should be used.
	if entries[0].Command != "new-binary" {
		t.Fatalf("expected the higher-priority source's definition to win, got %+v", entries[0])
	}
}

func TestBootstrapGroupsByFullCatalogIDNotServerKeyAlone(t *testing.T) {
	discovered := []DiscoveredServer{
		{Source: SourceCodexGlobal, ServerKey: "search", Scope: model.ScopeGlobal, Command: "x", Enabled: true},
		{Source: SourceProjectCodex, ServerKey: "search", Scope: model.ScopeProject, Workspace: "/home/x/proj", Command: "x", Enabled: true},
	}

	entries, _ := Bootstrap(discovered)
	if len(entries) != 2 {
		t.Fatalf("expected global and project entries to be distinct, got %d: %+v", len(entries), entries)
	}
}

func TestBootstrapProjectClaudeSourceSetsMcpJSONTarget(t *testing.T) {
	discovered := []DiscoveredServer{
		{Source: SourceProjectClaudeJSON, ServerKey: "search", Scope: model.ScopeProject, Workspace: "/home/x/proj", Command: "x", Enabled: true},
	}
	entries, _ := Bootstrap(discovered)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ProjectClaudeTarget != ProjectClaudeTargetMcpJSON {
		t.Fatalf("expected project claude target mcp_json, got %q", entries[0].ProjectClaudeTarget)
	}
	if !entries[0].Enabled.Project {
		t.Fatal("expected project enablement from SourceProjectClaudeJSON")
	}
}
