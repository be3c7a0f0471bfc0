// Package resolver groups candidates by key, detects content-hash
// divergence as a conflict, and elects a single canonical candidate per key
// by fixed source-root priority (spec §4.3).
//
// Generalizes richhaase-plonk's generic ReconcileItems — which compares a
// configured set against an actual set by name lookup maps — to an
// arbitrary number of input sources ranked by priority, since this engine
// has one source root per agent convention rather than one "configured"
// and one "actual" set.
package resolver

import (
	"sort"

	"skillssync/internal/model"
	"skillssync/internal/skillserrors"
)

// Elected is one winning candidate plus the full list of candidates that
// shared its key (for downstream migration/projection bookkeeping).
type Elected struct {
	Winner model.Candidate
	All    []model.Candidate // every candidate sharing Winner.Key, including Winner
}

// Result is the resolver's output for one (scope, workspace) pair.
type Result struct {
	Elected   map[string]Elected // key -> elected
	Conflicts []skillserrors.ConflictEntry
}

// Resolve groups candidates by key and elects a winner per spec §4.3.
// rootPriority must return the priority rank of a source root (lower wins);
// ties break on source-root path then canonical path, lexicographically.
func Resolve(kind model.Kind, scope model.Scope, workspace string, candidates []model.Candidate, rootPriority func(root string) int) Result {
	groups := make(map[string][]model.Candidate)
	for _, c := range candidates {
		groups[c.Key] = append(groups[c.Key], c)
	}

	result := Result{Elected: make(map[string]Elected)}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := groups[key]
		if hasConflict(group) {
			result.Conflicts = append(result.Conflicts, skillserrors.ConflictEntry{
				Kind:      string(kind),
				Scope:     string(scope),
				Workspace: workspace,
				Key:       key,
			})
			continue
		}

		winner := electWinner(group, rootPriority)
		result.Elected[key] = Elected{Winner: winner, All: group}
	}

	return result
}

func hasConflict(group []model.Candidate) bool {
	if len(group) < 2 {
		return false
	}
	first := group[0].ContentHash
	for _, c := range group[1:] {
		if c.ContentHash != first {
			return true
		}
	}
	return false
}

func electWinner(group []model.Candidate, rootPriority func(root string) int) model.Candidate {
	best := group[0]
	bestRank := rootPriority(best.SourceRoot)
	for _, c := range group[1:] {
		rank := rootPriority(c.SourceRoot)
		if rank < bestRank ||
			(rank == bestRank && c.SourceRoot < best.SourceRoot) ||
			(rank == bestRank && c.SourceRoot == best.SourceRoot && c.CanonicalPath < best.CanonicalPath) {
			best = c
			bestRank = rank
		}
	}
	return best
}

// RootPriorityIndex builds a rootPriority closure from an ordered root list,
// the common case where priority is simply list position.
func RootPriorityIndex(orderedRoots []string) func(root string) int {
	rank := make(map[string]int, len(orderedRoots))
	for i, r := range orderedRoots {
		rank[r] = i
	}
	return func(root string) int {
		if r, ok := rank[root]; ok {
			return r
		}
		return len(orderedRoots) // unknown roots sort last
	}
}
