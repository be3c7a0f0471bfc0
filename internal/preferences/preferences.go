// Package preferences reads and writes the user-preferences document: the
// migration opt-in, starred artifact ids, custom workspace-discovery roots,
// and the filesystem-changes gate. The file is whole-file rewritten with a
// trailing newline on every save, matching the teacher's Config.Save
// convention.
package preferences

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preferences is the single persisted preferences document.
type Preferences struct {
	// AutoMigrate enables the migrator (spec §4.4).
	AutoMigrate bool `yaml:"auto_migrate"`

	// FilesystemChangesGate short-circuits every mutator with a blocked
	// error when false (spec §5).
	FilesystemChangesGate bool `yaml:"filesystem_changes_gate"`

	// DebugLogging is persisted with the other preferences; nothing in this
	// module reads it. Telemetry file output follows the CLI's --debug flag.
	DebugLogging bool `yaml:"debug_logging"`

	// StarredSkillIDs and StarredSubagentIDs are deduplicated, order-
	// preserving lists of synthetic record ids (spec §4.1, §4.7).
	StarredSkillIDs    []string `yaml:"starred_skill_ids"`
	StarredSubagentIDs []string `yaml:"starred_subagent_ids"`

	// CustomDiscoveryRoots are user-configured absolute workspace-discovery
	// roots (spec §4.2).
	CustomDiscoveryRoots []string `yaml:"custom_discovery_roots"`
}

// Default returns the zero-value preferences document: migration off,
// filesystem gate off, no stars, no custom roots.
func Default() Preferences {
	return Preferences{}
}

// Load reads preferences from path. A missing file yields Default() rather
// than an error, matching the crash-tolerance requirement in spec §5 (the
// engine must re-read defaults on parse failure or absence).
func Load(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("preferences: read %s: %w", path, err)
	}

	var p Preferences
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), nil
	}
	return p, nil
}

// Save whole-file rewrites preferences to path, creating parent directories
// as needed, with a trailing newline.
func Save(path string, p Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("preferences: create dir for %s: %w", path, err)
	}

	out, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("preferences: marshal: %w", err)
	}
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("preferences: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("preferences: rename %s: %w", tmp, err)
	}
	return nil
}

// WithStarredSkill returns a copy of p with id added to (starred) or
// removed from (not starred) StarredSkillIDs,
// normalized: deduplicated and first-seen order preserved, and validated
// against the supplied set of currently-known ids (spec §8 property 4).
func (p Preferences) WithStarredSkill(id string, starred bool, knownIDs map[string]struct{}) Preferences {
	np := p
	np.StarredSkillIDs = toggleStarred(p.StarredSkillIDs, id, starred, knownIDs)
	return np
}

// WithStarredSubagent is the subagent analog of WithStarredSkill.
func (p Preferences) WithStarredSubagent(id string, starred bool, knownIDs map[string]struct{}) Preferences {
	np := p
	np.StarredSubagentIDs = toggleStarred(p.StarredSubagentIDs, id, starred, knownIDs)
	return np
}

func toggleStarred(current []string, id string, starred bool, knownIDs map[string]struct{}) []string {
	seen := make(map[string]struct{}, len(current))
	out := make([]string, 0, len(current)+1)
	for _, existing := range current {
		if _, known := knownIDs[existing]; !known {
			continue // drop stale ids no longer present in the snapshot
		}
		if _, dup := seen[existing]; dup {
			continue
		}
		if existing == id && !starred {
			continue
		}
		seen[existing] = struct{}{}
		out = append(out, existing)
	}
	if starred {
		if _, dup := seen[id]; !dup {
			if _, known := knownIDs[id]; known {
				out = append(out, id)
			}
		}
	}
	return out
}

// RemapStarred replaces oldID with newID in both starred lists, used after a
// rename or promote-to-global changes a skill's synthetic id (spec §4.7).
func (p Preferences) RemapStarred(oldID, newID string) Preferences {
	np := p
	np.StarredSkillIDs = remapID(p.StarredSkillIDs, oldID, newID)
	return np
}

func remapID(ids []string, oldID, newID string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == oldID {
			id = newID
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SortedCustomDiscoveryRoots returns CustomDiscoveryRoots deduplicated and
// sorted, dropping any non-absolute entry (spec §4.2: "configured roots
// must be absolute").
func (p Preferences) SortedCustomDiscoveryRoots() []string {
	seen := make(map[string]struct{}, len(p.CustomDiscoveryRoots))
	out := make([]string, 0, len(p.CustomDiscoveryRoots))
	for _, root := range p.CustomDiscoveryRoots {
		if !filepath.IsAbs(root) {
			continue
		}
		if _, dup := seen[root]; dup {
			continue
		}
		seen[root] = struct{}{}
		out = append(out, root)
	}
	sort.Strings(out)
	return out
}
