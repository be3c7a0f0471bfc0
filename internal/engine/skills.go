package engine

import (
	"path/filepath"

	"skillssync/internal/linkprojector"
	"skillssync/internal/migrator"
	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/preferences"
	"skillssync/internal/resolver"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
)

// skillResolution is one scope unit's scan+resolve outcome, computed before
// any filesystem mutation so the aggregate conflict check in reconcileOnce
// can veto the whole run before migration or link projection ever runs.
type skillResolution struct {
	unit    scopeUnit
	elected map[string]resolver.Elected
}

// resolveSkills runs the scanner/resolver stage for skill packages across
// every scope unit. It performs no filesystem mutation: migration and link
// projection are deferred to commitSkills, which only runs once the full
// aggregate conflict check across skills and subagents has passed (spec
// §3/§8: a run either fully commits or leaves the previous snapshot
// intact).
func (e *Engine) resolveSkills(units []scopeUnit) ([]skillResolution, []skillserrors.ConflictEntry, error) {
	var resolutions []skillResolution
	var conflicts []skillserrors.ConflictEntry

	for _, u := range units {
		candidates, err := scanner.ScanSkills(u.skillRoots, u.scope, u.workspace)
		if err != nil {
			return nil, nil, err
		}

		rootPriority := resolver.RootPriorityIndex(u.skillRoots)
		result := resolver.Resolve(model.KindSkill, u.scope, u.workspace, candidates, rootPriority)
		conflicts = append(conflicts, result.Conflicts...)
		resolutions = append(resolutions, skillResolution{unit: u, elected: result.Elected})
	}

	return resolutions, conflicts, nil
}

// commitSkills performs the migration and link-projection side effects for
// every resolved unit, and assembles the resulting skill records. Callers
// must only invoke this once resolveSkills (for skills and subagents both)
// has reported zero conflicts across the whole run.
func (e *Engine) commitSkills(resolutions []skillResolution, prefs preferences.Preferences) ([]model.SkillRecord, []string, error) {
	previousManifest := linkprojector.LoadManifest(e.Roots.SkillManifestFile()).ManagedLinks

	var records []model.SkillRecord
	var allManaged []string

	for _, res := range resolutions {
		u := res.unit

		if prefs.AutoMigrate {
			preferredRoot := e.Roots.PreferredGlobalSkillRoot()
			if u.scope == model.ScopeProject {
				preferredRoot = pathresolver.PreferredProjectSkillRoot(u.workspace)
			}
			if _, err := migrator.Migrate(res.elected, nil, preferredRoot); err != nil {
				return nil, nil, err
			}
		}

		targetPath := linkprojector.SkillTargetPath
		unitPreviousManaged := filterToRoots(previousManifest, u.skillRoots)
		outcome, managed, err := linkprojector.Project(res.elected, u.skillRoots, targetPath, unitPreviousManaged)
		if err != nil {
			return nil, nil, err
		}
		allManaged = append(allManaged, managed...)

		for key, elected := range res.elected {
			records = append(records, skillRecordFromElected(u, key, elected, outcome))
		}
	}

	return records, dedupSorted(allManaged), nil
}

func skillRecordFromElected(u scopeUnit, key string, elected resolver.Elected, outcome linkprojector.ProjectionOutcome) model.SkillRecord {
	id := model.RecordID(u.scope, u.workspace, key)
	targets := outcome.TargetPaths[key]
	return model.SkillRecord{
		ID:                  id,
		Name:                key,
		Scope:               u.scope,
		Workspace:           u.workspace,
		CanonicalSourcePath: elected.Winner.CanonicalPath,
		TargetPaths:         targets,
		Exists:              true,
		IsSymlinkCanonical:  false,
		PackageType:         "directory",
		SkillKey:            key,
		Status:              model.StatusActive,
	}
}

func filterToRoots(paths []string, roots []string) []string {
	var out []string
	for _, p := range paths {
		for _, root := range roots {
			rel, err := filepath.Rel(root, p)
			if err == nil && rel != ".." && !hasDotDotPrefix(rel) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}

func dedupSorted(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
