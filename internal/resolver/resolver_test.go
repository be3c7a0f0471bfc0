package resolver

import (
	"testing"

	"skillssync/internal/model"
)

func TestResolveElectsHighestPriorityRoot(t *testing.T) {
	candidates := []model.Candidate{
		{Key: "k", SourceRoot: "/low", CanonicalPath: "/low/k", ContentHash: "h"},
		{Key: "k", SourceRoot: "/high", CanonicalPath: "/high/k", ContentHash: "h"},
	}
	rootPriority := RootPriorityIndex([]string{"/high", "/low"})

	result := Resolve(model.KindSkill, model.ScopeGlobal, "", candidates, rootPriority)

	if len(result.Conflicts) != 0 {
		t.Fatalf("expected no conflicts, got %v", result.Conflicts)
	}
	elected, ok := result.Elected["k"]
	if !ok {
		t.Fatal("expected key k to be elected")
	}
	if elected.Winner.SourceRoot != "/high" {
		t.Fatalf("expected /high to win, got %s", elected.Winner.SourceRoot)
	}
	if len(elected.All) != 2 {
		t.Fatalf("expected both candidates retained in All, got %d", len(elected.All))
	}
}

func TestResolveDetectsConflictOnDivergentHash(t *testing.T) {
	candidates := []model.Candidate{
		{Key: "k", SourceRoot: "/a", CanonicalPath: "/a/k", ContentHash: "h1"},
		{Key: "k", SourceRoot: "/b", CanonicalPath: "/b/k", ContentHash: "h2"},
	}
	rootPriority := RootPriorityIndex([]string{"/a", "/b"})

	result := Resolve(model.KindSkill, model.ScopeGlobal, "", candidates, rootPriority)

	if len(result.Conflicts) != 1 {
		t.Fatalf("expected exactly one conflict, got %d", len(result.Conflicts))
	}
	if _, ok := result.Elected["k"]; ok {
		t.Fatal("a conflicting key must not be elected")
	}
}

func TestResolveSameHashIsNotAConflict(t *testing.T) {
	candidates := []model.Candidate{
		{Key: "k", SourceRoot: "/a", CanonicalPath: "/a/k", ContentHash: "same"},
		{Key: "k", SourceRoot: "/b", CanonicalPath: "/b/k", ContentHash: "same"},
	}
	rootPriority := RootPriorityIndex([]string{"/a", "/b"})

	result := Resolve(model.KindSkill, model.ScopeGlobal, "", candidates, rootPriority)

	if len(result.Conflicts) != 0 {
		t.Fatalf("identical content across roots must not conflict, got %v", result.Conflicts)
	}
}

func TestResolveUnknownRootSortsLast(t *testing.T) {
	candidates := []model.Candidate{
		{Key: "k", SourceRoot: "/known", CanonicalPath: "/known/k", ContentHash: "h"},
		{Key: "k", SourceRoot: "/unknown", CanonicalPath: "/unknown/k", ContentHash: "h"},
	}
	rootPriority := RootPriorityIndex([]string{"/known"})

	result := Resolve(model.KindSkill, model.ScopeGlobal, "", candidates, rootPriority)

	if result.Elected["k"].Winner.SourceRoot != "/known" {
		t.Fatalf("expected the known, higher-priority root to win, got %s", result.Elected["k"].Winner.SourceRoot)
	}
}
