package engine

import (
	"encoding/json"
	"os"
	"path/filepath"

	"skillssync/internal/auditlog"
	"skillssync/internal/lifecycle"
	"skillssync/internal/mcpregistry"
	"skillssync/internal/model"
	"skillssync/internal/preferences"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
)

// gate checks the filesystem-changes gate before a mutator runs (spec §5,
// §4.7). A blocked attempt never appends an audit event (spec §4.1
// "blocked-by-gate path does not append an audit event").
func (e *Engine) gate(prefs preferences.Preferences) error {
	if !prefs.FilesystemChangesGate {
		return &skillserrors.Unsupported{Reason: "filesystem changes are disabled by preference"}
	}
	return nil
}

func (e *Engine) allowedDeleteRoots(workspaces []string) []string {
	return lifecycle.AllowedDeleteRoots(e.Roots, workspaces)
}

// Delete moves a skill or subagent's canonical location into the trash and
// re-reconciles (spec §4.7).
func (e *Engine) Delete(id string, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "delete"}
	}

	rec, ok := e.FindSkill(id)
	key := ""
	target := ""
	if ok {
		key, target = rec.SkillKey, rec.CanonicalSourcePath
	} else if sa, ok2 := e.FindSubagent(id); ok2 {
		key, target = sa.SubagentKey, sa.CanonicalSourcePath
	} else {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: id}
	}

	workspaces, _ := scanner.DiscoverWorkspaces(e.Roots.Home, prefs.SortedCustomDiscoveryRoots())
	err := lifecycle.Delete(e.Roots, target, key, e.allowedDeleteRoots(workspaces))
	e.mu.Unlock()
	if err != nil {
		e.appendAudit(auditlog.NewEvent("delete", auditlog.StatusFailed, "mutator", err.Error(), []string{target}, ""))
		return model.Snapshot{}, err
	}

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("delete", statusFor(syncErr), "mutator", "deleted "+key, []string{target}, errString(syncErr)))
	return snap, syncErr
}

// Archive moves a skill's canonical source and managed links into an
// archive bundle and re-reconciles (spec §4.7). Archive applies to skills
// only, matching spec §4.7's bundle shape (source/ + links/).
func (e *Engine) Archive(id string, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "archive"}
	}

	rec, ok := e.FindSkill(id)
	if !ok {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: id}
	}

	workspaces, _ := scanner.DiscoverWorkspaces(e.Roots.Home, prefs.SortedCustomDiscoveryRoots())
	_, err := lifecycle.Archive(e.Roots, rec.SkillKey, rec.Name, string(rec.Scope), rec.Workspace, rec.CanonicalSourcePath, rec.TargetPaths, e.allowedDeleteRoots(workspaces))
	e.mu.Unlock()
	if err != nil {
		e.appendAudit(auditlog.NewEvent("archive", auditlog.StatusFailed, "mutator", err.Error(), []string{rec.CanonicalSourcePath}, ""))
		return model.Snapshot{}, err
	}

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("archive", statusFor(syncErr), "mutator", "archived "+rec.SkillKey, []string{rec.CanonicalSourcePath}, errString(syncErr)))
	return snap, syncErr
}

// Restore re-materialises an archived skill at its preferred global
// location from its bundle (spec §4.7). bundle is the archive bundle
// directory path (spec §6 ArchivedBundlePath).
func (e *Engine) Restore(bundle string, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "restore"}
	}

	manifestPath := filepath.Join(bundle, "manifest.json")
	var manifest struct {
		SkillKey string `json:"skill_key"`
	}
	raw, err := os.ReadFile(manifestPath)
	if err == nil {
		err = json.Unmarshal(raw, &manifest)
	}
	if err != nil || manifest.SkillKey == "" {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: manifestPath}
	}
	destination := filepath.Join(e.Roots.PreferredGlobalSkillRoot(), manifest.SkillKey)
	err = lifecycle.Restore(bundle, destination)
	e.mu.Unlock()
	if err != nil {
		e.appendAudit(auditlog.NewEvent("restore", auditlog.StatusFailed, "mutator", err.Error(), []string{bundle}, ""))
		return model.Snapshot{}, err
	}

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("restore", statusFor(syncErr), "mutator", "restored "+bundle, []string{destination}, errString(syncErr)))
	return snap, syncErr
}

// Rename normalizes newTitle to a key, moves the skill, rewrites its
// front-matter title, migrates the starred-id preference, and
// re-reconciles (spec §4.7).
func (e *Engine) Rename(id, newTitle string, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "rename"}
	}

	rec, ok := e.FindSkill(id)
	if !ok {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: id}
	}

	_, newKey, err := lifecycle.Rename(e.Roots, rec.Scope, rec.Workspace, rec.SkillKey, newTitle, rec.CanonicalSourcePath)
	if err != nil {
		e.mu.Unlock()
		e.appendAudit(auditlog.NewEvent("rename", auditlog.StatusFailed, "mutator", err.Error(), []string{rec.CanonicalSourcePath}, ""))
		return model.Snapshot{}, err
	}

	newID := model.RecordID(rec.Scope, rec.Workspace, newKey)
	prefs = prefs.RemapStarred(id, newID)
	if err := e.savePreferences(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	e.mu.Unlock()

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("rename", statusFor(syncErr), "mutator", rec.SkillKey+" -> "+newKey, []string{rec.CanonicalSourcePath}, errString(syncErr)))
	return snap, syncErr
}

// MakeGlobal promotes a project-scope skill to the preferred global
// location and migrates its starred-id preference (spec §4.7).
func (e *Engine) MakeGlobal(id string, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "make_global"}
	}

	rec, ok := e.FindSkill(id)
	if !ok || rec.Scope != model.ScopeProject {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: id}
	}

	_, err := lifecycle.PromoteToGlobal(e.Roots, rec.SkillKey, rec.CanonicalSourcePath)
	if err != nil {
		e.mu.Unlock()
		e.appendAudit(auditlog.NewEvent("make_global", auditlog.StatusFailed, "mutator", err.Error(), []string{rec.CanonicalSourcePath}, ""))
		return model.Snapshot{}, err
	}

	newID := model.RecordID(model.ScopeGlobal, "", rec.SkillKey)
	prefs = prefs.RemapStarred(id, newID)
	if err := e.savePreferences(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	e.mu.Unlock()

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("make_global", statusFor(syncErr), "mutator", "promoted "+rec.SkillKey, []string{rec.CanonicalSourcePath}, errString(syncErr)))
	return snap, syncErr
}

// SetMcpEnabled toggles a catalog entry's per-agent enablement and
// re-reconciles so the projection reflects it (spec §4.1, §4.6).
func (e *Engine) SetMcpEnabled(catalogID string, enabled model.AgentEnablement, confirmed bool) (model.Snapshot, error) {
	e.mu.Lock()
	prefs := e.loadPreferences()
	if err := e.gate(prefs); err != nil {
		e.mu.Unlock()
		return model.Snapshot{}, err
	}
	if !confirmed {
		e.mu.Unlock()
		return model.Snapshot{}, &skillserrors.ConfirmationRequiredError{Op: "set_mcp_enabled"}
	}

	found, err := mcpregistry.SetEnabled(e.Roots.CentralCatalogFile(), catalogID, enabled)
	e.mu.Unlock()
	if err != nil {
		return model.Snapshot{}, err
	}
	if !found {
		return model.Snapshot{}, &skillserrors.TargetMissingError{Path: catalogID}
	}

	snap, syncErr := e.RunSync(model.TriggerMutator)
	e.appendAudit(auditlog.NewEvent("set_mcp_enabled", statusFor(syncErr), "mutator", catalogID, nil, errString(syncErr)))
	return snap, syncErr
}

// SetSkillStarred mutates only preferences, returning the normalized
// starred-id list (spec §4.1 set_skill_starred).
func (e *Engine) SetSkillStarred(id string, starred bool) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prefs := e.loadPreferences()
	known := make(map[string]struct{}, len(e.Latest().Skills))
	for _, r := range e.Latest().Skills {
		known[r.ID] = struct{}{}
	}
	prefs = prefs.WithStarredSkill(id, starred, known)
	if err := e.savePreferences(prefs); err != nil {
		return nil, err
	}
	return prefs.StarredSkillIDs, nil
}

func statusFor(err error) auditlog.Status {
	if err != nil {
		return auditlog.StatusFailed
	}
	return auditlog.StatusSuccess
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (e *Engine) appendAudit(event auditlog.Event) {
	if err := auditlog.Append(e.Roots.AuditLogFile(), event, auditlog.DefaultCap); err != nil {
		log.Error("append audit event: %v", err)
	}
}
