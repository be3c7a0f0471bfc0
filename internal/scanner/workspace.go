package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"skillssync/internal/pathresolver"
)

// DiscoverWorkspaces computes the workspace candidate set: direct children
// of <home>/Dev, grand-children of <home>/.codex/worktrees, and up to depth
// 3 under each custom discovery root — each filtered to directories
// containing at least one known root file, then deduplicated by
// canonicalization and sorted (spec §4.2).
func DiscoverWorkspaces(home string, customRoots []string) ([]string, error) {
	var candidates []string

	if children, err := listDirs(filepath.Join(home, "Dev")); err == nil {
		candidates = append(candidates, children...)
	}

	worktreesRoot := filepath.Join(home, ".codex", "worktrees")
	if parents, err := listDirs(worktreesRoot); err == nil {
		for _, parent := range parents {
			if grand, err := listDirs(parent); err == nil {
				candidates = append(candidates, grand...)
			}
		}
	}

	for _, root := range customRoots {
		candidates = append(candidates, walkToDepth(root, 3)...)
	}

	known := pathresolver.KnownRootFiles()
	seen := make(map[string]struct{}, len(candidates))
	var out []string
	for _, c := range candidates {
		if !hasKnownRootFile(c, known) {
			continue
		}
		canon, err := filepath.EvalSymlinks(c)
		if err != nil {
			canon = c
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		out = append(out, canon)
	}
	sort.Strings(out)
	return out, nil
}

func listDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(root, e.Name()))
		}
	}
	return out, nil
}

// walkToDepth returns every directory at depth 1..maxDepth beneath root,
// root itself included at depth 0, since a custom discovery root may itself
// be a workspace.
func walkToDepth(root string, maxDepth int) []string {
	var out []string
	var walk func(dir string, depth int)
	walk = func(dir string, depth int) {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return
		}
		out = append(out, dir)
		if depth >= maxDepth {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				walk(filepath.Join(dir, e.Name()), depth+1)
			}
		}
	}
	walk(root, 0)
	return out
}

func hasKnownRootFile(dir string, known []string) bool {
	for _, rel := range known {
		if _, err := os.Lstat(filepath.Join(dir, rel)); err == nil {
			return true
		}
	}
	return false
}
