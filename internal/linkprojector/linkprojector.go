// Package linkprojector creates, updates, and removes the managed symlinks
// that make every elected canonical package resolve from every expected
// mirror location (spec §4.5).
//
// Generalizes anthonylu23-context_grabber's ensureSymlink/removeSymlink
// (readlink, compare resolved target, replace if wrong) from a single fixed
// skill to an arbitrary elected-package set, adding the stale-link-diff
// cleanup pass (previous manifest minus new manifest) the single-skill
// installer didn't need because it always knew its own canonical path.
package linkprojector

import (
	"os"
	"path/filepath"
	"sort"

	"skillssync/internal/resolver"
	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentProjector)

// TargetPathFunc computes the mirror path within a target root for a given
// key — target_root/key for skills, target_root/(key+".md") for subagents.
type TargetPathFunc func(targetRoot, key string) string

// SkillTargetPath implements TargetPathFunc for skill packages.
func SkillTargetPath(targetRoot, key string) string { return filepath.Join(targetRoot, key) }

// SubagentTargetPath implements TargetPathFunc for subagent packages.
func SubagentTargetPath(targetRoot, key string) string {
	return filepath.Join(targetRoot, key+".md")
}

// ProjectionOutcome reports, per elected key, the resulting target paths and
// a warning-class note for any non-managed collision encountered.
type ProjectionOutcome struct {
	TargetPaths   map[string][]string // key -> sorted target paths (including intrinsic canonical)
	SymlinkTarget map[string]string   // allocated empty by Project; never filled
	Warnings      []string
}

// Project computes, for every elected package, its mirror locations across
// targetRoots, creating/updating/removing symlinks as needed, and returns
// the new set of managed links plus a projection outcome for snapshot
// assembly. previousManaged is the prior run's manifest for this kind; any
// path in it but not in the new set is removed, provided it is currently a
// symlink (spec §4.5 closing paragraph, §8 property 3, §9 open question).
func Project(elected map[string]resolver.Elected, targetRoots []string, targetPath TargetPathFunc, previousManaged []string) (ProjectionOutcome, []string, error) {
	outcome := ProjectionOutcome{
		TargetPaths:   make(map[string][]string),
		SymlinkTarget: make(map[string]string),
	}
	newManaged := make(map[string]struct{})

	keys := make([]string, 0, len(elected))
	for k := range elected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		e := elected[key]
		canonical := e.Winner.CanonicalPath
		canonResolved, err := filepath.EvalSymlinks(canonical)
		if err != nil {
			canonResolved = canonical
		}

		var targets []string
		for _, root := range targetRoots {
			target := targetPath(root, key)

			resolvedTarget, rerr := filepath.EvalSymlinks(target)
			isIntrinsic := rerr == nil && resolvedTarget == canonResolved

			if isIntrinsic {
				targets = append(targets, target)
				continue
			}

			action, err := ensureManagedSymlink(target, canonical, canonResolved)
			if err != nil {
				outcome.Warnings = append(outcome.Warnings, err.Error())
				log.Warn("project %s -> %s: %v", target, canonical, err)
				continue
			}
			targets = append(targets, target)
			if action != actionNone {
				newManaged[target] = struct{}{}
			} else if wasSymlinkTo(target, canonResolved) {
				newManaged[target] = struct{}{}
			}
		}

		sort.Strings(targets)
		outcome.TargetPaths[key] = targets
	}

	staleCount := 0
	for _, path := range previousManaged {
		if _, stillManaged := newManaged[path]; stillManaged {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil {
			continue // already gone
		}
		if info.Mode()&os.ModeSymlink == 0 {
			continue // non-managed content now occupies this path; never touched (spec §9)
		}
		if err := os.Remove(path); err != nil {
			outcome.Warnings = append(outcome.Warnings, "failed to remove stale managed link "+path+": "+err.Error())
			log.Warn("remove stale link %s: %v", path, err)
			continue
		}
		staleCount++
	}
	if staleCount > 0 {
		log.Info("removed %d stale managed link(s)", staleCount)
	}

	manifest := make([]string, 0, len(newManaged))
	for path := range newManaged {
		manifest = append(manifest, path)
	}
	sort.Strings(manifest)

	return outcome, manifest, nil
}

type linkAction int

const (
	actionNone linkAction = iota
	actionCreated
	actionReplaced
)

// ensureManagedSymlink makes target a symlink to canonical, replacing
// whatever is there only if it isn't already a correct symlink (spec §4.5).
func ensureManagedSymlink(target, canonical, canonResolved string) (linkAction, error) {
	info, err := os.Lstat(target)
	if err != nil {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return actionNone, err
		}
		if err := os.Symlink(canonical, target); err != nil {
			return actionNone, err
		}
		return actionCreated, nil
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(target); err == nil && resolved == canonResolved {
			return actionNone, nil
		}
	}

	if err := os.RemoveAll(target); err != nil {
		return actionNone, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return actionNone, err
	}
	if err := os.Symlink(canonical, target); err != nil {
		return actionNone, err
	}
	return actionReplaced, nil
}

func wasSymlinkTo(path, canonResolved string) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return false
	}
	resolved, err := filepath.EvalSymlinks(path)
	return err == nil && resolved == canonResolved
}

// Manifest is the persisted shape of a managed-links manifest file (spec
// §3, §6). Skill and subagent manifests are stored separately so removal
// of one kind's stale links can never prune the other's.
type Manifest struct {
	Version      int       `json:"version"`
	GeneratedAt  string    `json:"generated_at"`
	ManagedLinks []string  `json:"managed_links"`
}
