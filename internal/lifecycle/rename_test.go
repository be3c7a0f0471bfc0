package lifecycle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/skillserrors"
)

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"My Skill!":         "my-skill",
		"  leading/trail ":  "leading-trail",
		"Already-Normal":    "already-normal",
		"multiple---hyphens": "multiple-hyphens",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeSkillMd(t *testing.T, dir, title string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "SKILL.md")
	content := "---\ntitle: " + title + "\ndescription: a test skill\n---\n\nbody\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRenameMovesDirectoryAndRewritesTitle(t *testing.T) {
	home := t.TempDir()
	roots := pathresolver.New(home, filepath.Join(home, ".skills-sync"))

	oldDir := filepath.Join(home, "staging", "old-key")
	writeSkillMd(t, oldDir, "Old Title")

	newPath, newKey, err := Rename(roots, model.ScopeGlobal, "", "old-key", "New Title", oldDir)
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if newKey != "new-title" {
		t.Fatalf("expected normalized key new-title, got %s", newKey)
	}
	wantPath := filepath.Join(roots.PreferredGlobalSkillRoot(), "new-title")
	if newPath != wantPath {
		t.Fatalf("expected new path %s, got %s", wantPath, newPath)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Fatal("old directory should no longer exist")
	}

	raw, err := os.ReadFile(filepath.Join(newPath, "SKILL.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "title: New Title") {
		t.Fatalf("expected rewritten title, got:\n%s", raw)
	}
	if !strings.Contains(string(raw), "description: a test skill") {
		t.Fatal("rewriteTitle must preserve unrelated front-matter fields")
	}
}

func TestRenameRejectsNoOp(t *testing.T) {
	home := t.TempDir()
	roots := pathresolver.New(home, filepath.Join(home, ".skills-sync"))
	dir := filepath.Join(home, "staging", "same-key")
	writeSkillMd(t, dir, "Same Key")

	_, _, err := Rename(roots, model.ScopeGlobal, "", "same-key", "Same Key", dir)
	var renameErr *skillserrors.RenameError
	if err == nil {
		t.Fatal("expected an error for a no-op rename")
	}
	if !asRenameErr(err, &renameErr) || renameErr.Reason != skillserrors.RenameReasonNoOp {
		t.Fatalf("expected RenameReasonNoOp, got %v", err)
	}
}

func TestRenameRejectsEmptyNormalizedTitle(t *testing.T) {
	home := t.TempDir()
	roots := pathresolver.New(home, filepath.Join(home, ".skills-sync"))
	dir := filepath.Join(home, "staging", "k")
	writeSkillMd(t, dir, "K")

	_, _, err := Rename(roots, model.ScopeGlobal, "", "k", "!!!", dir)
	var renameErr *skillserrors.RenameError
	if !asRenameErr(err, &renameErr) || renameErr.Reason != skillserrors.RenameReasonEmptyKey {
		t.Fatalf("expected RenameReasonEmptyKey, got %v", err)
	}
}

func TestRenameRejectsExistingDestination(t *testing.T) {
	home := t.TempDir()
	roots := pathresolver.New(home, filepath.Join(home, ".skills-sync"))
	src := filepath.Join(home, "staging", "src")
	writeSkillMd(t, src, "Src")
	dst := filepath.Join(roots.PreferredGlobalSkillRoot(), "dst")
	writeSkillMd(t, dst, "Dst")

	_, _, err := Rename(roots, model.ScopeGlobal, "", "src", "Dst", src)
	var renameErr *skillserrors.RenameError
	if !asRenameErr(err, &renameErr) || renameErr.Reason != skillserrors.RenameReasonDstExists {
		t.Fatalf("expected RenameReasonDstExists, got %v", err)
	}
}

func asRenameErr(err error, target **skillserrors.RenameError) bool {
	re, ok := err.(*skillserrors.RenameError)
	if !ok {
		return false
	}
	*target = re
	return true
}
