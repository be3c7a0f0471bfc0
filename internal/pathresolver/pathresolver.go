// Package pathresolver computes the fixed set of well-known roots and
// persistent-state locations the rest of the engine operates over, from a
// home directory and a runtime directory. It performs no filesystem
// mutation; existence checks elsewhere treat a root returned here as a
// candidate, not a guarantee.
package pathresolver

import (
	"os"
	"path/filepath"
)

// Env var names consumed at process start (spec §6).
const (
	EnvRuntimeDir = "SKILLS_SYNC_RUNTIME_DIR"
	EnvGroupDir   = "SKILLS_SYNC_GROUP_DIR"
)

// Roots is the resolved set of filesystem locations the engine operates
// against for a given home directory and runtime directory.
type Roots struct {
	Home       string
	RuntimeDir string // archives, manifests, write-plan
	GroupDir   string // preferences + state

	GlobalSkillRoots    []string // priority order
	GlobalSubagentRoots []string // priority order
}

// New resolves Roots from a home directory and runtime directory, applying
// environment overrides when the caller passes empty strings for either.
func New(home, runtimeDir string) Roots {
	if home == "" {
		home = defaultHome()
	}
	if runtimeDir == "" {
		if v := os.Getenv(EnvRuntimeDir); v != "" {
			runtimeDir = v
		} else {
			runtimeDir = filepath.Join(home, ".skills-sync")
		}
	}
	groupDir := runtimeDir
	if v := os.Getenv(EnvGroupDir); v != "" {
		groupDir = v
	}

	return Roots{
		Home:       home,
		RuntimeDir: runtimeDir,
		GroupDir:   groupDir,
		GlobalSkillRoots: []string{
			filepath.Join(home, ".claude", "skills"),
			filepath.Join(home, ".agents", "skills"),
			filepath.Join(home, ".codex", "skills"),
		},
		GlobalSubagentRoots: []string{
			filepath.Join(home, ".agents", "subagents"),
			filepath.Join(home, ".claude", "agents"),
			filepath.Join(home, ".cursor", "agents"),
		},
	}
}

func defaultHome() string {
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return h
	}
	return os.Getenv("HOME")
}

// ProjectSkillRoots returns the skill discovery/projection roots for a
// workspace, in priority order (spec §4.2).
func ProjectSkillRoots(workspace string) []string {
	return []string{
		filepath.Join(workspace, ".claude", "skills"),
		filepath.Join(workspace, ".agents", "skills"),
		filepath.Join(workspace, ".codex", "skills"),
	}
}

// ProjectSubagentRoots returns the subagent discovery/projection roots for a
// workspace, in priority order.
func ProjectSubagentRoots(workspace string) []string {
	return []string{
		filepath.Join(workspace, ".agents", "subagents"),
		filepath.Join(workspace, ".claude", "agents"),
		filepath.Join(workspace, ".cursor", "agents"),
	}
}

// PreferredGlobalSkillRoot is the migration/rename/promote destination root
// for global-scope skills (spec §4.4, §4.7).
func (r Roots) PreferredGlobalSkillRoot() string {
	return filepath.Join(r.Home, ".claude", "skills")
}

// PreferredProjectSkillRoot is the migration/rename destination root for a
// project-scope skill.
func PreferredProjectSkillRoot(workspace string) string {
	return filepath.Join(workspace, ".claude", "skills")
}

// StateFile is the persisted reconciled-state snapshot (spec §6).
func (r Roots) StateFile() string { return filepath.Join(r.GroupDir, "state.json") }

// PreferencesFile is the whole-file-rewritten preferences document.
func (r Roots) PreferencesFile() string { return filepath.Join(r.GroupDir, "preferences.yaml") }

// AuditLogFile is the append-only structured event ring.
func (r Roots) AuditLogFile() string { return filepath.Join(r.RuntimeDir, "audit.log.json") }

// SkillManifestFile is the managed-links manifest for skill packages.
func (r Roots) SkillManifestFile() string {
	return filepath.Join(r.RuntimeDir, ".skill-sync-manifest.json")
}

// SubagentManifestFile is the managed-links manifest for subagent packages.
func (r Roots) SubagentManifestFile() string {
	return filepath.Join(r.RuntimeDir, ".subagent-sync-manifest.json")
}

// McpManifestFile is the remote-tool registry write-plan manifest.
func (r Roots) McpManifestFile() string {
	return filepath.Join(r.RuntimeDir, ".mcp-sync-manifest.json")
}

// ArchivesRoot is the directory under which archive bundles are created.
func (r Roots) ArchivesRoot() string { return filepath.Join(r.RuntimeDir, "archives") }

// LogDir is the directory telemetry writes category log files into.
func (r Roots) LogDir() string { return filepath.Join(r.RuntimeDir, "logs") }

// TrashDir is the destination root for deleted (not archived) artifacts.
func (r Roots) TrashDir() string { return filepath.Join(r.Home, ".Trash") }

// CentralCatalogFile is the authoritative TOML store for the remote-tool
// registry (spec §4.6).
func (r Roots) CentralCatalogFile() string {
	return filepath.Join(r.Home, ".config", "ai-agents", "config.toml")
}

// CodexGlobalConfig is the codex-global host TOML file.
func (r Roots) CodexGlobalConfig() string {
	return filepath.Join(r.Home, ".codex", "config.toml")
}

// ProjectCodexConfig is the per-workspace codex host TOML file.
func ProjectCodexConfig(workspace string) string {
	return filepath.Join(workspace, ".codex", "config.toml")
}

// ClaudeUserGlobalConfig is claude-user-global (~/.claude.json).
func (r Roots) ClaudeUserGlobalConfig() string {
	return filepath.Join(r.Home, ".claude.json")
}

// ClaudeLocalGlobalConfig is claude-local-global
// (~/.claude/settings.local.json).
func (r Roots) ClaudeLocalGlobalConfig() string {
	return filepath.Join(r.Home, ".claude", "settings.local.json")
}

// ClaudeGlobalGlobalConfig is claude-global-global
// (~/.claude/settings.json).
func (r Roots) ClaudeGlobalGlobalConfig() string {
	return filepath.Join(r.Home, ".claude", "settings.json")
}

// ProjectClaudeJSON is the workspace-scoped .mcp.json host file.
func ProjectClaudeJSON(workspace string) string {
	return filepath.Join(workspace, ".mcp.json")
}

// DevRoot and CodexWorktreesRoot feed workspace discovery (spec §4.2).
func (r Roots) DevRoot() string             { return filepath.Join(r.Home, "Dev") }
func (r Roots) CodexWorktreesRoot() string  { return filepath.Join(r.Home, ".codex", "worktrees") }

// KnownRootFiles enumerates, relative to a workspace root, every file whose
// presence marks a directory as a workspace candidate (spec §4.2).
func KnownRootFiles() []string {
	return []string{
		filepath.Join(".claude", "skills"),
		filepath.Join(".agents", "skills"),
		filepath.Join(".codex", "skills"),
		filepath.Join(".agents", "subagents"),
		filepath.Join(".claude", "agents"),
		filepath.Join(".cursor", "agents"),
		filepath.Join(".codex", "config.toml"),
		".mcp.json",
	}
}
