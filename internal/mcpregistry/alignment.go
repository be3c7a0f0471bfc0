package mcpregistry

import (
	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
)

// Align implements spec §4.6's "Auto-alignment": if a catalog entry's
// claude flag is off but a claude source shows it enabled, and that
// source's host file was never written by a prior run of this engine for
// that entry (per the write-plan manifest), the engine assumes the user
// turned it on directly in that host file and flips claude on to match,
// recording a warning. It mutates entries in place and returns the
// warnings produced.
func Align(roots pathresolver.Roots, entries []CatalogEntry, discovered []DiscoveredServer, previousPlan WritePlan) []string {
	byID := make(map[string]*CatalogEntry, len(entries))
	for i := range entries {
		byID[entries[i].CatalogID] = &entries[i]
	}

	var warnings []string
	for _, d := range discovered {
		if !d.Enabled || !agentsForSource(d.Source).Claude {
			continue
		}
		e, ok := byID[model.CatalogID(d.Scope, d.Workspace, d.ServerKey)]
		if !ok || e.Enabled.Claude {
			continue
		}

		host := claudeHostPathForSource(roots, d.Source, d.Workspace)
		if host != "" && previousPlanManaged(previousPlan, host, e.CatalogID) {
			continue
		}

		e.Enabled.Claude = true
		warnings = append(warnings, e.CatalogID+" was observed enabled in a claude source outside engine management; claude flag aligned on")
		log.Info("auto-aligned %s: claude flag enabled from unmanaged source", e.CatalogID)
	}
	return warnings
}

// claudeHostPathForSource returns the host config file a claude-family
// source reads from, mirroring DiscoverAll's own source-to-path wiring.
func claudeHostPathForSource(roots pathresolver.Roots, src Source, workspace string) string {
	switch src {
	case SourceClaudeGlobalGlobal:
		return roots.ClaudeGlobalGlobalConfig()
	case SourceClaudeLocalGlobal:
		return roots.ClaudeLocalGlobalConfig()
	case SourceClaudeUserGlobal, SourceClaudeUserProjects:
		return roots.ClaudeUserGlobalConfig()
	case SourceProjectClaudeJSON:
		return pathresolver.ProjectClaudeJSON(workspace)
	default:
		return ""
	}
}

func previousPlanManaged(plan WritePlan, host, catalogID string) bool {
	for _, locator := range plan.Targets[host] {
		if locator == catalogID {
			return true
		}
	}
	return false
}
