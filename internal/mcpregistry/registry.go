package mcpregistry

import (
	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
)

// RunResult is everything one registry pass contributes to a sync run:
// the records for the snapshot, and whether the catalog file changed.
type RunResult struct {
	Records       []model.McpServerRecord
	Warnings      []string
	CatalogWrote  bool
}

// Run executes one full remote-tool registry pass (spec §4.6): load (or
// bootstrap) the central catalog, project every enabled entry to its host
// config targets, and persist both the catalog and the write-plan
// manifest. workspaces lists every known project workspace so bootstrap
// can discover their host files too.
func Run(roots pathresolver.Roots, workspaces []string) (RunResult, error) {
	catalogPath := roots.CentralCatalogFile()
	writePlanPath := roots.McpManifestFile()

	entries, err := LoadCatalog(catalogPath)
	if err != nil {
		return RunResult{}, err
	}

	var result RunResult

	previousPlan := LoadWritePlan(writePlanPath)
	discovered := DiscoverAll(roots, workspaces)

	if len(entries) == 0 {
		bootstrapped, warnings := Bootstrap(discovered)
		entries = bootstrapped
		result.Warnings = append(result.Warnings, warnings...)
		log.Info("bootstrapped catalog with %d entries from %d discovered definitions", len(entries), len(discovered))
	} else {
		result.Warnings = append(result.Warnings, Align(roots, entries, discovered, previousPlan)...)
	}

	projection, err := Project(roots, entries, previousPlan)
	if err != nil {
		return RunResult{}, err
	}
	result.Records = projection.Records
	result.Warnings = append(result.Warnings, projection.Warnings...)

	wrote, err := SaveCatalog(catalogPath, entries)
	if err != nil {
		return RunResult{}, err
	}
	result.CatalogWrote = wrote

	if err := SaveWritePlan(writePlanPath, projection.NewTargets); err != nil {
		return RunResult{}, err
	}

	return result, nil
}

// SetEnabled mutates one catalog entry's per-agent enable flags by catalog
// id and persists the change (spec §4.1 set_mcp_enabled). It reports
// whether the entry was found.
func SetEnabled(catalogPath, catalogID string, enabled model.AgentEnablement) (bool, error) {
	entries, err := LoadCatalog(catalogPath)
	if err != nil {
		return false, err
	}

	found := false
	for i := range entries {
		if entries[i].CatalogID == catalogID {
			entries[i].Enabled = enabled
			found = true
			break
		}
	}
	if !found {
		return false, nil
	}

	if _, err := SaveCatalog(catalogPath, entries); err != nil {
		return false, err
	}
	return true, nil
}
