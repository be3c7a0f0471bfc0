package engine

import (
	"sort"
	"time"

	"skillssync/internal/auditlog"
	"skillssync/internal/linkprojector"
	"skillssync/internal/mcpregistry"
	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/preferences"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
	"skillssync/internal/statestore"
)

func (e *Engine) loadLatestFromDisk() {
	snap, err := statestore.Load(e.Roots.StateFile())
	if err != nil {
		log.Warn("load state.json: %v", err)
		return
	}
	e.setLatest(snap)
}

// scopeUnit names one (scope, workspace) pair to reconcile, with its
// priority-ordered roots for each kind.
type scopeUnit struct {
	scope         model.Scope
	workspace     string
	skillRoots    []string
	subagentRoots []string
}

func (e *Engine) units(workspaces []string) []scopeUnit {
	units := []scopeUnit{{
		scope:         model.ScopeGlobal,
		skillRoots:    e.Roots.GlobalSkillRoots,
		subagentRoots: e.Roots.GlobalSubagentRoots,
	}}
	for _, ws := range workspaces {
		units = append(units, scopeUnit{
			scope:         model.ScopeProject,
			workspace:     ws,
			skillRoots:    pathresolver.ProjectSkillRoots(ws),
			subagentRoots: pathresolver.ProjectSubagentRoots(ws),
		})
	}
	return units
}

// RunSync executes one full reconciliation (spec §4.1): scanner →
// resolver → migrator → link projector → managed-links manifest write →
// remote-tool registry → snapshot assembly → state write → audit event.
// The managed-links manifests are written before the registry pass and
// the state write, so a failure in either leaves them already updated.
// Serialized by Engine's mutex so at most one reconciliation runs at a
// time.
func (e *Engine) RunSync(trigger model.Trigger) (model.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now().UTC()
	prefs := e.loadPreferences()
	previous := e.Latest()

	snap, warnings, failErr := e.reconcileOnce(prefs)
	finished := time.Now().UTC()

	if failErr != nil {
		failed := model.Snapshot{
			Version:         model.CurrentSnapshotVersion,
			GeneratedAt:     finished,
			Summary:         previous.Summary,
			SubagentSummary: previous.SubagentSummary,
			Skills:          previous.Skills,
			Subagents:       previous.Subagents,
			McpServers:      previous.McpServers,
			TopSkills:       previous.TopSkills,
			TopSubagents:    previous.TopSubagents,
			Sync: model.SyncInfo{
				Status:         model.SyncFailed,
				LastStartedAt:  started,
				LastFinishedAt: finished,
				DurationMs:     finished.Sub(started).Milliseconds(),
				Error:          failErr.Error(),
				Warnings:       warnings,
			},
		}
		if err := statestore.Save(e.Roots.StateFile(), failed); err != nil {
			log.Error("write failed snapshot: %v", err)
		}
		e.setLatest(failed)
		e.appendAudit(auditlog.NewEvent("run_sync", auditlog.StatusFailed, string(trigger), failErr.Error(), nil, ""))
		return failed, failErr
	}

	snap.Version = model.CurrentSnapshotVersion
	snap.GeneratedAt = finished
	snap.Sync = model.SyncInfo{
		Status:         model.SyncOK,
		LastStartedAt:  started,
		LastFinishedAt: finished,
		DurationMs:     finished.Sub(started).Milliseconds(),
		Warnings:       warnings,
	}

	if err := statestore.Save(e.Roots.StateFile(), snap); err != nil {
		return snap, err
	}
	e.setLatest(snap)

	if !sameManagedState(previous, snap) {
		e.appendAudit(auditlog.NewEvent("run_sync", auditlog.StatusSuccess, string(trigger), "reconciliation completed", nil, ""))
	}

	return snap, nil
}

// reconcileOnce performs the filesystem-facing half of a reconciliation
// run: discovery, conflict detection, optional migration, link projection,
// and the remote-tool registry pass. It does not touch state.json or the
// audit log.
func (e *Engine) reconcileOnce(prefs preferences.Preferences) (model.Snapshot, []string, error) {
	workspaces, err := scanner.DiscoverWorkspaces(e.Roots.Home, prefs.SortedCustomDiscoveryRoots())
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	units := e.units(workspaces)

	var warnings []string

	// Resolve scans and groups candidates but performs no filesystem
	// mutation. Every unit across both kinds must be resolved and checked
	// for conflicts before any migration or link projection runs, so a
	// conflict discovered in a later unit can never leave an earlier
	// unit's physical mutations committed while the run is reported failed.
	skillResolutions, skillConflicts, err := e.resolveSkills(units)
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	subagentResolutions, subagentConflicts, err := e.resolveSubagents(units)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	allConflicts := append(append([]skillserrors.ConflictEntry(nil), skillConflicts...), subagentConflicts...)
	if len(allConflicts) > 0 {
		return model.Snapshot{}, nil, &skillserrors.ConflictsError{Conflicts: allConflicts}
	}

	skillRecords, skillManaged, err := e.commitSkills(skillResolutions, prefs)
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	subagentRecords, subagentManaged, err := e.commitSubagents(subagentResolutions)
	if err != nil {
		return model.Snapshot{}, nil, err
	}

	if err := linkprojector.SaveManifest(e.Roots.SkillManifestFile(), skillManaged); err != nil {
		return model.Snapshot{}, nil, err
	}
	if err := linkprojector.SaveManifest(e.Roots.SubagentManifestFile(), subagentManaged); err != nil {
		return model.Snapshot{}, nil, err
	}

	mcpResult, err := mcpregistry.Run(e.Roots, workspaces)
	if err != nil {
		return model.Snapshot{}, nil, err
	}
	warnings = append(warnings, mcpResult.Warnings...)

	knownSkillIDs := make(map[string]struct{}, len(skillRecords))
	for _, r := range skillRecords {
		knownSkillIDs[r.ID] = struct{}{}
	}
	knownSubagentIDs := make(map[string]struct{}, len(subagentRecords))
	for _, r := range subagentRecords {
		knownSubagentIDs[r.ID] = struct{}{}
	}

	summary := model.Summary{MCPCount: len(mcpResult.Records), MCPWarningCount: countWarnings(mcpResult.Records)}
	subagentSummary := model.Summary{}
	for _, r := range skillRecords {
		if r.Scope == model.ScopeGlobal {
			summary.GlobalCount++
		} else {
			summary.ProjectCount++
		}
	}
	for _, r := range subagentRecords {
		if r.Scope == model.ScopeGlobal {
			subagentSummary.GlobalCount++
		} else {
			subagentSummary.ProjectCount++
		}
	}

	snap := model.Snapshot{
		Summary:         summary,
		SubagentSummary: subagentSummary,
		Skills:          skillRecords,
		Subagents:       subagentRecords,
		McpServers:      mcpResult.Records,
		TopSkills:       topStarred(prefs.StarredSkillIDs, knownSkillIDs),
		TopSubagents:    topStarred(prefs.StarredSubagentIDs, knownSubagentIDs),
	}
	return snap, warnings, nil
}

func countWarnings(records []model.McpServerRecord) int {
	n := 0
	for _, r := range records {
		n += len(r.Warnings)
	}
	return n
}

func topStarred(starred []string, known map[string]struct{}) []string {
	var out []string
	for _, id := range starred {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// sameManagedState reports whether two snapshots carry the same
// user-observable managed state, ignoring timestamps and duration (spec
// §4.1: a success audit event is suppressed when the run makes no
// managed-state change relative to the previous successful snapshot).
func sameManagedState(a, b model.Snapshot) bool {
	if a.Sync.Status != model.SyncOK {
		return false
	}
	return summaryEqual(a.Summary, b.Summary) &&
		summaryEqual(a.SubagentSummary, b.SubagentSummary) &&
		skillsEqual(a.Skills, b.Skills) &&
		subagentsEqual(a.Subagents, b.Subagents) &&
		mcpEqual(a.McpServers, b.McpServers)
}

func summaryEqual(a, b model.Summary) bool { return a == b }

func skillsEqual(a, b []model.SkillRecord) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]model.SkillRecord(nil), a...)
	sb := append([]model.SkillRecord(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i].ID < sa[j].ID })
	sort.Slice(sb, func(i, j int) bool { return sb[i].ID < sb[j].ID })
	for i := range sa {
		if !skillRecordEqual(sa[i], sb[i]) {
			return false
		}
	}
	return true
}

func skillRecordEqual(a, b model.SkillRecord) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Scope != b.Scope || a.Workspace != b.Workspace ||
		a.CanonicalSourcePath != b.CanonicalSourcePath || a.Exists != b.Exists ||
		a.IsSymlinkCanonical != b.IsSymlinkCanonical || a.PackageType != b.PackageType ||
		a.SkillKey != b.SkillKey || a.SymlinkTarget != b.SymlinkTarget || a.Status != b.Status {
		return false
	}
	if len(a.TargetPaths) != len(b.TargetPaths) {
		return false
	}
	for i := range a.TargetPaths {
		if a.TargetPaths[i] != b.TargetPaths[i] {
			return false
		}
	}
	return true
}

func subagentsEqual(a, b []model.SubagentRecord) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]model.SubagentRecord(nil), a...)
	sb := append([]model.SubagentRecord(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i].ID < sa[j].ID })
	sort.Slice(sb, func(i, j int) bool { return sb[i].ID < sb[j].ID })
	for i := range sa {
		x, y := sa[i], sb[i]
		x.ArchivedAt, y.ArchivedAt = "", ""
		if !subagentRecordEqual(x, y) {
			return false
		}
	}
	return true
}

func subagentRecordEqual(a, b model.SubagentRecord) bool {
	if a.ID != b.ID || a.Name != b.Name || a.CanonicalSourcePath != b.CanonicalSourcePath ||
		a.Status != b.Status || a.Description != b.Description || a.Model != b.Model {
		return false
	}
	if len(a.TargetPaths) != len(b.TargetPaths) || len(a.Tools) != len(b.Tools) {
		return false
	}
	for i := range a.TargetPaths {
		if a.TargetPaths[i] != b.TargetPaths[i] {
			return false
		}
	}
	for i := range a.Tools {
		if a.Tools[i] != b.Tools[i] {
			return false
		}
	}
	return true
}

func mcpEqual(a, b []model.McpServerRecord) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]model.McpServerRecord(nil), a...)
	sb := append([]model.McpServerRecord(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i].ServerKey < sa[j].ServerKey })
	sort.Slice(sb, func(i, j int) bool { return sb[i].ServerKey < sb[j].ServerKey })
	for i := range sa {
		if sa[i].ServerKey != sb[i].ServerKey || sa[i].Command != sb[i].Command || sa[i].URL != sb[i].URL {
			return false
		}
	}
	return true
}
