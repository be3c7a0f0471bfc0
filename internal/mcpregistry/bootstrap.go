package mcpregistry

import (
	"sort"

	"skillssync/internal/model"
	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentMCPRegistry)

// Bootstrap builds the initial catalog from every discovered source when
// the central catalog is empty (spec §4.6). Entries are grouped by catalog
// id; the definition comes from the lowest-priority (winning) source that
// defined it, with a warning recorded when sources disagree on content.
func Bootstrap(discovered []DiscoveredServer) ([]CatalogEntry, []string) {
	type group struct {
		entries []DiscoveredServer
	}
	groups := make(map[string]*group)
	idOf := func(d DiscoveredServer) string { return model.CatalogID(d.Scope, d.Workspace, d.ServerKey) }

	var order []string
	for _, d := range discovered {
		id := idOf(d)
		g, ok := groups[id]
		if !ok {
			g = &group{}
			groups[id] = g
			order = append(order, id)
		}
		g.entries = append(g.entries, d)
	}
	sort.Strings(order)

	var warnings []string
	var out []CatalogEntry

	for _, id := range order {
		g := groups[id]
		sort.Slice(g.entries, func(i, j int) bool {
			return SourcePriority(g.entries[i].Source) < SourcePriority(g.entries[j].Source)
		})

		winner := g.entries[0]
		if disagreesOnContent(g.entries) {
			warnings = append(warnings, "multiple sources define "+id+" with differing content; "+string(winner.Source)+" wins")
			log.Warn("catalog bootstrap: %s has conflicting definitions, %s wins", id, winner.Source)
		}

		enabled := model.AgentEnablement{}
		for _, e := range g.entries {
			if !e.Enabled {
				continue
			}
			flags := agentsForSource(e.Source)
			enabled.Codex = enabled.Codex || flags.Codex
			enabled.Claude = enabled.Claude || flags.Claude
			enabled.Project = enabled.Project || flags.Project
		}
		if winner.Scope == model.ScopeGlobal {
			enabled.Project = false // "A global entry always has project = false" (spec §4.6)
		}

		target := ""
		if winner.Scope == model.ScopeProject {
			target = ProjectClaudeTargetMcpJSON
		}

		out = append(out, CatalogEntry{
			CatalogID:           id,
			Scope:                winner.Scope,
			Workspace:            winner.Workspace,
			ServerKey:            winner.ServerKey,
			Transport:            winner.Transport,
			Command:              winner.Command,
			Args:                 winner.Args,
			URL:                  winner.URL,
			Env:                  winner.Env,
			Enabled:              enabled,
			ProjectClaudeTarget:  target,
			DefiningSource:       winner.Source,
		})
	}

	return out, warnings
}

func disagreesOnContent(entries []DiscoveredServer) bool {
	if len(entries) < 2 {
		return false
	}
	first := entries[0]
	for _, e := range entries[1:] {
		if e.Transport != first.Transport || e.Command != first.Command || e.URL != first.URL {
			return true
		}
		if len(e.Args) != len(first.Args) {
			return true
		}
		for i := range e.Args {
			if e.Args[i] != first.Args[i] {
				return true
			}
		}
	}
	return false
}
