// Package lifecycle implements the mutators that change what's on disk
// before the next reconciliation runs: delete, archive, restore, rename,
// and promote-to-global (spec §4.7). Every mutator here is a pure
// filesystem operation; the caller (internal/engine) is responsible for
// holding the sync mutex and re-running reconciliation afterward.
//
// Grounded in the teacher's internal/world file-mutation helpers
// (move-with-fallback-copy, directory creation idioms) generalized from
// single-file mangle edits to whole-package moves.
package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"skillssync/internal/pathresolver"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
	"skillssync/internal/telemetry"
)

var log = telemetry.Get(telemetry.ComponentLifecycle)

// AllowedDeleteRoots returns the full set of roots a delete or archive
// target must fall under (spec §4.7): the per-scope skill/subagent roots,
// the archives root, and every project target root.
func AllowedDeleteRoots(roots pathresolver.Roots, workspaces []string) []string {
	out := append([]string(nil), roots.GlobalSkillRoots...)
	out = append(out, roots.GlobalSubagentRoots...)
	out = append(out, roots.ArchivesRoot())
	for _, ws := range workspaces {
		out = append(out, pathresolver.ProjectSkillRoots(ws)...)
		out = append(out, pathresolver.ProjectSubagentRoots(ws)...)
	}
	return out
}

func isWithinAny(path string, allowedRoots []string) bool {
	resolved := path
	for _, root := range allowedRoots {
		rel, err := filepath.Rel(root, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && rel != "..") {
			return true
		}
	}
	return false
}

// Delete moves target into <home>/.Trash, disambiguating on collision
// (spec §4.7). target must not cross a protected segment, must fall under
// one of allowedRoots, and must exist.
func Delete(roots pathresolver.Roots, target, key string, allowedRoots []string) error {
	if scanner.HasProtectedSegment(key) {
		return &skillserrors.ProtectedPathError{Path: target}
	}
	if !isWithinAny(target, allowedRoots) {
		return &skillserrors.OutsideAllowedRootsError{Path: target}
	}
	if _, err := os.Lstat(target); err != nil {
		return &skillserrors.TargetMissingError{Path: target}
	}

	trash := roots.TrashDir()
	if err := os.MkdirAll(trash, 0o755); err != nil {
		return &skillserrors.IOError{Path: trash, Cause: err}
	}

	base := filepath.Base(target)
	dest := filepath.Join(trash, base)
	for n := 1; ; n++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(trash, fmt.Sprintf("%s.%d", base, n))
	}

	if err := os.Rename(target, dest); err != nil {
		return &skillserrors.IOError{Path: target, Cause: err}
	}
	log.Info("deleted %s -> %s", target, dest)
	return nil
}

// archiveBundleManifest is the persisted shape of <bundle>/manifest.json
// (spec §6 "Archive-bundle manifest").
type archiveBundleManifest struct {
	Version                     int      `json:"version"`
	ArchivedAt                  string   `json:"archived_at"`
	SkillKey                    string   `json:"skill_key"`
	Name                        string   `json:"name"`
	OriginalScope               string   `json:"original_scope"`
	OriginalWorkspace           string   `json:"original_workspace,omitempty"`
	OriginalCanonicalSourcePath string   `json:"original_canonical_source_path"`
	MovedLinks                  []string `json:"moved_links"`
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func escapeKeyForBundleName(key string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(key, "-"), "-")
}

// Archive moves the canonical source and every managed mirror link into a
// self-describing bundle under <runtime>/archives/ (spec §4.7).
func Archive(roots pathresolver.Roots, key, name, scope, workspace, canonicalSource string, managedLinks []string, allowedRoots []string) (bundlePath string, err error) {
	if scanner.HasProtectedSegment(key) {
		return "", &skillserrors.ProtectedPathError{Path: canonicalSource}
	}
	if !isWithinAny(canonicalSource, allowedRoots) {
		return "", &skillserrors.OutsideAllowedRootsError{Path: canonicalSource}
	}
	if _, err := os.Lstat(canonicalSource); err != nil {
		return "", &skillserrors.TargetMissingError{Path: canonicalSource}
	}

	now := time.Now().UTC()
	bundleName := fmt.Sprintf("%s-%s-%s", now.Format("20060102T150405Z"), escapeKeyForBundleName(key), shortUUID())
	bundle := filepath.Join(roots.ArchivesRoot(), bundleName)
	sourceDir := filepath.Join(bundle, "source")
	linksDir := filepath.Join(bundle, "links")

	if err := os.MkdirAll(bundle, 0o755); err != nil {
		return "", &skillserrors.IOError{Path: bundle, Cause: err}
	}
	if err := os.MkdirAll(filepath.Dir(sourceDir), 0o755); err != nil {
		return "", &skillserrors.IOError{Path: sourceDir, Cause: err}
	}
	if err := os.Rename(canonicalSource, sourceDir); err != nil {
		return "", &skillserrors.IOError{Path: canonicalSource, Cause: err}
	}

	var moved []string
	if len(managedLinks) > 0 {
		if err := os.MkdirAll(linksDir, 0o755); err != nil {
			return "", &skillserrors.IOError{Path: linksDir, Cause: err}
		}
		for i, link := range managedLinks {
			if _, err := os.Lstat(link); err != nil {
				continue
			}
			dest := filepath.Join(linksDir, fmt.Sprintf("%d-%s", i, filepath.Base(link)))
			if err := os.Rename(link, dest); err != nil {
				log.Warn("archive %s: could not move managed link %s: %v", key, link, err)
				continue
			}
			moved = append(moved, dest)
		}
	}

	manifest := archiveBundleManifest{
		Version:                     1,
		ArchivedAt:                  now.Format(time.RFC3339),
		SkillKey:                    key,
		Name:                        name,
		OriginalScope:               scope,
		OriginalWorkspace:           workspace,
		OriginalCanonicalSourcePath: canonicalSource,
		MovedLinks:                  moved,
	}
	if err := writeManifest(filepath.Join(bundle, "manifest.json"), manifest); err != nil {
		return "", err
	}

	log.Info("archived %s into %s", key, bundle)
	return bundle, nil
}

// Restore moves a bundle's source/ back onto the preferred global
// destination and removes the bundle (spec §4.7).
func Restore(bundle, destination string) error {
	sourceDir := filepath.Join(bundle, "source")
	if _, err := os.Lstat(sourceDir); err != nil {
		return &skillserrors.TargetMissingError{Path: sourceDir}
	}
	if _, err := os.Lstat(destination); err == nil {
		return &skillserrors.TargetExistsError{Path: destination}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return &skillserrors.IOError{Path: destination, Cause: err}
	}
	if err := os.Rename(sourceDir, destination); err != nil {
		return &skillserrors.IOError{Path: sourceDir, Cause: err}
	}
	if err := os.RemoveAll(bundle); err != nil {
		log.Warn("restore %s: bundle directory could not be fully removed: %v", bundle, err)
	}
	log.Info("restored %s -> %s", bundle, destination)
	return nil
}

func shortUUID() string {
	id := uuid.New().String()
	return strings.ReplaceAll(id, "-", "")[:8]
}
