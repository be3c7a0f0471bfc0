package linkprojector

import (
	"os"
	"path/filepath"
	"testing"

	"skillssync/internal/model"
	"skillssync/internal/resolver"
)

func TestProjectCreatesSymlinkToCanonical(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "canonical", "my-skill")
	if err := os.MkdirAll(canonical, 0o755); err != nil {
		t.Fatal(err)
	}
	targetRoot := filepath.Join(dir, "mirror")

	elected := map[string]resolver.Elected{
		"my-skill": {Winner: model.Candidate{Key: "my-skill", CanonicalPath: canonical}},
	}

	outcome, managed, err := Project(elected, []string{targetRoot}, SkillTargetPath, nil)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	wantTarget := filepath.Join(targetRoot, "my-skill")
	if len(managed) != 1 || managed[0] != wantTarget {
		t.Fatalf("expected %s to be managed, got %v", wantTarget, managed)
	}

	resolved, err := filepath.EvalSymlinks(wantTarget)
	if err != nil {
		t.Fatalf("expected a working symlink at %s: %v", wantTarget, err)
	}
	canonResolved, _ := filepath.EvalSymlinks(canonical)
	if resolved != canonResolved {
		t.Fatalf("symlink resolves to %s, want %s", resolved, canonResolved)
	}

	if got := outcome.TargetPaths["my-skill"]; len(got) != 1 || got[0] != wantTarget {
		t.Fatalf("unexpected TargetPaths: %v", got)
	}
}

func TestProjectRemovesStaleManagedLink(t *testing.T) {
	dir := t.TempDir()
	canonical := filepath.Join(dir, "canonical", "my-skill")
	if err := os.MkdirAll(canonical, 0o755); err != nil {
		t.Fatal(err)
	}
	staleTarget := filepath.Join(dir, "mirror", "stale-skill")
	if err := os.MkdirAll(filepath.Dir(staleTarget), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(canonical, staleTarget); err != nil {
		t.Fatal(err)
	}

	_, managed, err := Project(map[string]resolver.Elected{}, nil, SkillTargetPath, []string{staleTarget})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(managed) != 0 {
		t.Fatalf("expected no managed links after removal, got %v", managed)
	}
	if _, err := os.Lstat(staleTarget); !os.IsNotExist(err) {
		t.Fatalf("expected stale managed link to be removed, stat err = %v", err)
	}
}

func TestProjectNeverRemovesNonSymlinkContent(t *testing.T) {
	dir := t.TempDir()
	occupied := filepath.Join(dir, "mirror", "real-file")
	if err := os.MkdirAll(filepath.Dir(occupied), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(occupied, []byte("not a symlink"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, err := Project(map[string]resolver.Elected{}, nil, SkillTargetPath, []string{occupied})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if _, err := os.Lstat(occupied); err != nil {
		t.Fatalf("non-symlink content must survive stale-link cleanup: %v", err)
	}
}
