// Package scanner walks the well-known roots and emits candidate skill and
// subagent packages, each carrying a content hash (spec §4.2).
//
// Grounded in the teacher's filesystem-walk idiom (internal/world's
// workspace scanning, generalized here from AST/file discovery to package
// discovery) and in anthonylu23-context_grabber's Lstat/Readlink helpers
// for telling a canonical package apart from a mirror by resolved path
// rather than lexical path (spec §9).
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"skillssync/internal/model"
	"skillssync/internal/telemetry"
)

// ProtectedSegments is the fixed set of path segments a key may never
// contain (spec §4.2).
var ProtectedSegments = map[string]struct{}{".system": {}}

// HasProtectedSegment reports whether key contains any protected segment.
func HasProtectedSegment(key string) bool {
	for _, seg := range strings.Split(key, "/") {
		if _, bad := ProtectedSegments[seg]; bad {
			return true
		}
	}
	return false
}

var log = telemetry.Get(telemetry.ComponentScanner)

// ScanSkills walks roots (already in priority order) for a given scope and
// optional workspace, emitting one candidate per directory containing a
// SKILL.md. Roots that don't exist are skipped silently; a root existing
// but unreadable produces a best-effort partial result (errors are logged,
// not fatal — a single damaged subtree should not abort discovery of every
// other root).
func ScanSkills(roots []string, scope model.Scope, workspace string) ([]model.Candidate, error) {
	var out []model.Candidate
	for _, root := range roots {
		info, err := os.Lstat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		cands, err := scanSkillRoot(root, scope, workspace)
		if err != nil {
			log.Warn("scan skill root %s: %v", root, err)
			continue
		}
		out = append(out, cands...)
	}
	sortCandidates(out)
	return out, nil
}

func scanSkillRoot(root string, scope model.Scope, workspace string) ([]model.Candidate, error) {
	var out []model.Candidate

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // best-effort: skip unreadable entries
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() != "SKILL.md" {
			return nil
		}

		pkgDir := filepath.Dir(path)
		rel, err := filepath.Rel(root, pkgDir)
		if err != nil {
			return nil
		}
		key := filepath.ToSlash(rel)
		if key == "." || key == "" {
			return nil
		}
		if HasProtectedSegment(key) {
			return nil
		}

		hash, herr := HashDirectory(pkgDir)
		if herr != nil {
			log.Warn("hash directory %s: %v", pkgDir, herr)
			return nil
		}

		out = append(out, model.Candidate{
			Kind:          model.KindSkill,
			Scope:         scope,
			Workspace:     workspace,
			Key:           key,
			SourceRoot:    root,
			CanonicalPath: pkgDir,
			ContentHash:   hash,
		})
		return nil
	})
	if err != nil {
		return out, err
	}
	return out, nil
}

// HashDirectory computes the directory content hash of spec §3: sorted
// relative paths of every regular file and symlink beneath dir, each
// followed by its bytes. A symlink contributes the bytes of the file it
// resolves to, or the broken-symlink marker when it does not resolve to a
// readable file.
func HashDirectory(dir string) (string, error) {
	var entries []model.HashEntry

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		rel, rerr := filepath.Rel(dir, path)
		if rerr != nil {
			return rerr
		}
		relSlash := filepath.ToSlash(rel)

		if d.IsDir() {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil {
			return ierr
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, lerr := filepath.EvalSymlinks(path)
			if lerr != nil {
				entries = append(entries, model.HashEntry{Path: relSlash, Content: []byte(model.BrokenSymlinkMarker)})
				return nil
			}
			content, rerr := os.ReadFile(target)
			if rerr != nil {
				entries = append(entries, model.HashEntry{Path: relSlash, Content: []byte(model.BrokenSymlinkMarker)})
				return nil
			}
			entries = append(entries, model.HashEntry{Path: relSlash, Content: content})
			return nil
		}

		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return rerr
		}
		entries = append(entries, model.HashEntry{Path: relSlash, Content: content})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("hash directory %s: %w", dir, err)
	}

	return model.ContentHash(entries), nil
}

// sortCandidates sorts candidates by key then source root then canonical
// path, used wherever a deterministic listing order matters (spec §8
// property 1: byte-identical state.json across unchanged runs).
func sortCandidates(cands []model.Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Key != cands[j].Key {
			return cands[i].Key < cands[j].Key
		}
		if cands[i].SourceRoot != cands[j].SourceRoot {
			return cands[i].SourceRoot < cands[j].SourceRoot
		}
		return cands[i].CanonicalPath < cands[j].CanonicalPath
	})
}
