package engine

import (
	"skillssync/internal/linkprojector"
	"skillssync/internal/model"
	"skillssync/internal/resolver"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
)

// subagentResolution mirrors skillResolution for the subagent kind.
type subagentResolution struct {
	unit    scopeUnit
	elected map[string]resolver.Elected
}

// resolveSubagents mirrors resolveSkills: scan+resolve only, no mutation.
func (e *Engine) resolveSubagents(units []scopeUnit) ([]subagentResolution, []skillserrors.ConflictEntry, error) {
	var resolutions []subagentResolution
	var conflicts []skillserrors.ConflictEntry

	for _, u := range units {
		candidates, err := scanner.ScanSubagents(u.subagentRoots, u.scope, u.workspace)
		if err != nil {
			return nil, nil, err
		}

		rootPriority := resolver.RootPriorityIndex(u.subagentRoots)
		result := resolver.Resolve(model.KindSubagent, u.scope, u.workspace, candidates, rootPriority)
		conflicts = append(conflicts, result.Conflicts...)
		resolutions = append(resolutions, subagentResolution{unit: u, elected: result.Elected})
	}

	return resolutions, conflicts, nil
}

// commitSubagents mirrors commitSkills. Subagents are never migrated (spec
// §4.4 names skill packages only), so this only runs link projection.
func (e *Engine) commitSubagents(resolutions []subagentResolution) ([]model.SubagentRecord, []string, error) {
	previousManifest := linkprojector.LoadManifest(e.Roots.SubagentManifestFile()).ManagedLinks

	var records []model.SubagentRecord
	var allManaged []string

	for _, res := range resolutions {
		u := res.unit
		unitPreviousManaged := filterToRoots(previousManifest, u.subagentRoots)
		outcome, managed, err := linkprojector.Project(res.elected, u.subagentRoots, linkprojector.SubagentTargetPath, unitPreviousManaged)
		if err != nil {
			return nil, nil, err
		}
		allManaged = append(allManaged, managed...)

		for key, elected := range res.elected {
			records = append(records, subagentRecordFromElected(u, key, elected, outcome))
		}
	}

	return records, dedupSorted(allManaged), nil
}

func subagentRecordFromElected(u scopeUnit, key string, elected resolver.Elected, outcome linkprojector.ProjectionOutcome) model.SubagentRecord {
	id := model.RecordID(u.scope, u.workspace, key)
	targets := outcome.TargetPaths[key]
	return model.SubagentRecord{
		ID:                  id,
		Name:                key,
		Scope:               u.scope,
		Workspace:           u.workspace,
		CanonicalSourcePath: elected.Winner.CanonicalPath,
		TargetPaths:         targets,
		Exists:              true,
		IsSymlinkCanonical:  false,
		PackageType:         "file",
		SubagentKey:         key,
		Status:              model.StatusActive,
		Description:         elected.Winner.Description,
		Model:               elected.Winner.Model,
		Tools:               elected.Winner.Tools,
	}
}
