// Package mcpregistry implements the remote-tool registry: a parallel
// pipeline that bootstraps a central catalog from host config files, writes
// managed blocks back into those files, and records which entries were
// inserted where (spec §4.6).
//
// This is the one component with no direct teacher analog — codeNERD's own
// internal/mcp package is shaped around *consuming* MCP tools at runtime,
// not registering host config entries. Its record shapes
// (MCPServerConfig's protocol enum, per-server config string) are adapted
// here into CatalogEntry/McpServerRecord; the managed-block and JSON-merge
// mechanics come from this module's own configfile packages.
package mcpregistry

import "skillssync/internal/model"

// Source identifies where a catalog entry definition was discovered,
// ordered lowest-wins per spec §4.6 "Source priority".
type Source string

const (
	SourceProjectClaudeJSON    Source = "project-claude-json"
	SourceClaudeUserProjects   Source = "claude-user-projects"
	SourceProjectCodex         Source = "project-codex"
	SourceCodexGlobal          Source = "codex-global"
	SourceClaudeUserGlobal     Source = "claude-user-global"
	SourceClaudeLocalGlobal    Source = "claude-local-global"
	SourceClaudeGlobalGlobal   Source = "claude-global-global"
)

// SourcePriority returns the fixed priority rank of a source, lowest wins
// (spec §4.6).
func SourcePriority(s Source) int {
	order := []Source{
		SourceProjectClaudeJSON,
		SourceClaudeUserProjects,
		SourceProjectCodex,
		SourceCodexGlobal,
		SourceClaudeUserGlobal,
		SourceClaudeLocalGlobal,
		SourceClaudeGlobalGlobal,
	}
	for i, o := range order {
		if o == s {
			return i
		}
	}
	return len(order)
}

// CatalogEntry is one remote-tool registration as held in the central
// catalog, prior to projection (spec §3, §4.6).
type CatalogEntry struct {
	CatalogID           string
	Scope               model.Scope
	Workspace           string
	ServerKey            string
	Transport            model.Transport
	Command               string
	Args                  []string
	URL                   string
	Env                   map[string]string
	Enabled               model.AgentEnablement
	ProjectClaudeTarget   string // "mcp_json" or "claude_json_nested"

	// DefiningSource is the source whose definition won when multiple
	// sources disagreed (bootstrap only; zero value once loaded from the
	// catalog file itself).
	DefiningSource Source
}

// ProjectClaudeTarget values (spec §3 "Managed-links manifest").
const (
	ProjectClaudeTargetMcpJSON        = "mcp_json"
	ProjectClaudeTargetClaudeJSONNest = "claude_json_nested"
)

// DiscoveredServer is a raw server definition read from one host source,
// prior to merging (spec §4.6 bootstrap).
type DiscoveredServer struct {
	Source    Source
	ServerKey string
	Scope     model.Scope
	Workspace string
	Transport model.Transport
	Command   string
	Args      []string
	URL       string
	Env       map[string]string
	Enabled   bool // whether this source's data says the server is "on"
}
