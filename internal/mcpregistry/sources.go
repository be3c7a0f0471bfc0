package mcpregistry

import (
	"encoding/json"
	"os"

	"github.com/BurntSushi/toml"

	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
)

// codexServerEntry is one [mcp_servers.<name>] table in a codex TOML host
// file.
type codexServerEntry struct {
	Command string            `toml:"command"`
	Args    []string          `toml:"args"`
	URL     string            `toml:"url"`
	Env     map[string]string `toml:"env"`
}

type codexDocument struct {
	MCPServers map[string]codexServerEntry `toml:"mcp_servers"`
}

// jsonServerEntry is one entry under a "mcpServers" object in any of the
// claude-family JSON host files.
type jsonServerEntry struct {
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	URL     string            `json:"url,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

type claudeDocument struct {
	MCPServers map[string]jsonServerEntry            `json:"mcpServers"`
	Projects   map[string]claudeProjectSection        `json:"projects"`
}

type claudeProjectSection struct {
	MCPServers map[string]jsonServerEntry `json:"mcpServers"`
}

func transportFor(cmd, url string) model.Transport {
	if cmd == "" && url != "" {
		return model.TransportHTTP
	}
	return model.TransportStdio
}

// DiscoverAll reads every host source enumerated in spec §4.6 and every
// per-workspace variant, returning the raw discovered servers for
// bootstrap merging.
func DiscoverAll(roots pathresolver.Roots, workspaces []string) []DiscoveredServer {
	var out []DiscoveredServer

	out = append(out, discoverCodexTOML(roots.CodexGlobalConfig(), SourceCodexGlobal, model.ScopeGlobal, "")...)
	out = append(out, discoverClaudeJSON(roots.ClaudeGlobalGlobalConfig(), SourceClaudeGlobalGlobal, model.ScopeGlobal, "")...)
	out = append(out, discoverClaudeJSON(roots.ClaudeLocalGlobalConfig(), SourceClaudeLocalGlobal, model.ScopeGlobal, "")...)
	out = append(out, discoverClaudeUserGlobalAndProjects(roots.ClaudeUserGlobalConfig())...)

	for _, ws := range workspaces {
		out = append(out, discoverCodexTOML(pathresolver.ProjectCodexConfig(ws), SourceProjectCodex, model.ScopeProject, ws)...)
		out = append(out, discoverClaudeJSON(pathresolver.ProjectClaudeJSON(ws), SourceProjectClaudeJSON, model.ScopeProject, ws)...)
	}

	return out
}

func discoverCodexTOML(path string, src Source, scope model.Scope, workspace string) []DiscoveredServer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc codexDocument
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil
	}

	var out []DiscoveredServer
	for name, entry := range doc.MCPServers {
		out = append(out, DiscoveredServer{
			Source:    src,
			ServerKey: name,
			Scope:     scope,
			Workspace: workspace,
			Transport: transportFor(entry.Command, entry.URL),
			Command:   entry.Command,
			Args:      entry.Args,
			URL:       entry.URL,
			Env:       entry.Env,
			Enabled:   true,
		})
	}
	return out
}

func discoverClaudeJSON(path string, src Source, scope model.Scope, workspace string) []DiscoveredServer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc claudeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return serversFromMap(doc.MCPServers, src, scope, workspace)
}

// discoverClaudeUserGlobalAndProjects handles ~/.claude.json, which carries
// both the claude-user-global top-level mcpServers and, nested under
// "projects", the claude-user-projects source for every workspace it knows
// about.
func discoverClaudeUserGlobalAndProjects(path string) []DiscoveredServer {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var doc claudeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	out := serversFromMap(doc.MCPServers, SourceClaudeUserGlobal, model.ScopeGlobal, "")
	for ws, section := range doc.Projects {
		out = append(out, serversFromMap(section.MCPServers, SourceClaudeUserProjects, model.ScopeProject, ws)...)
	}
	return out
}

func serversFromMap(servers map[string]jsonServerEntry, src Source, scope model.Scope, workspace string) []DiscoveredServer {
	var out []DiscoveredServer
	for name, entry := range servers {
		out = append(out, DiscoveredServer{
			Source:    src,
			ServerKey: name,
			Scope:     scope,
			Workspace: workspace,
			Transport: transportFor(entry.Command, entry.URL),
			Command:   entry.Command,
			Args:      entry.Args,
			URL:       entry.URL,
			Env:       entry.Env,
			Enabled:   true,
		})
	}
	return out
}

// agentsForSource reports which of the three enable flags a given source's
// presence should OR into (spec §4.6 bootstrap: "merging the three enable
// flags across sources with OR over 'source said enabled'").
func agentsForSource(src Source) model.AgentEnablement {
	switch src {
	case SourceCodexGlobal, SourceProjectCodex:
		return model.AgentEnablement{Codex: true}
	case SourceClaudeUserGlobal, SourceClaudeLocalGlobal, SourceClaudeGlobalGlobal, SourceClaudeUserProjects:
		return model.AgentEnablement{Claude: true}
	case SourceProjectClaudeJSON:
		return model.AgentEnablement{Claude: true, Project: true}
	default:
		return model.AgentEnablement{}
	}
}
