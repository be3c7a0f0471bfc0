package migrator

import (
	"os"
	"path/filepath"
	"testing"

	"skillssync/internal/model"
	"skillssync/internal/resolver"
)

func TestMigrateMovesCanonicalAndLeavesSymlinkBehind(t *testing.T) {
	dir := t.TempDir()
	lowPriority := filepath.Join(dir, "low", "my-skill")
	preferred := filepath.Join(dir, "preferred")
	if err := os.MkdirAll(lowPriority, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(lowPriority, "SKILL.md"), []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}

	elected := map[string]resolver.Elected{
		"my-skill": {
			Winner: model.Candidate{Key: "my-skill", CanonicalPath: lowPriority},
			All:    []model.Candidate{{Key: "my-skill", CanonicalPath: lowPriority}},
		},
	}

	failures, err := Migrate(elected, map[string]struct{}{}, preferred)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}

	dest := filepath.Join(preferred, "my-skill")
	if _, err := os.Stat(filepath.Join(dest, "SKILL.md")); err != nil {
		t.Fatalf("expected content moved to preferred root: %v", err)
	}

	updated := elected["my-skill"]
	if updated.Winner.CanonicalPath != dest {
		t.Fatalf("expected Winner.CanonicalPath updated to %s, got %s", dest, updated.Winner.CanonicalPath)
	}

	info, err := os.Lstat(lowPriority)
	if err != nil {
		t.Fatalf("expected a symlink left behind at the old location: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("expected the old location to become a symlink")
	}
	resolved, err := filepath.EvalSymlinks(lowPriority)
	if err != nil || resolved != dest {
		t.Fatalf("expected old location to resolve to %s, got %s (err=%v)", dest, resolved, err)
	}
}

func TestMigrateSkipsConflictedKeys(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "low", "conflicted")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}

	elected := map[string]resolver.Elected{
		"conflicted": {Winner: model.Candidate{Key: "conflicted", CanonicalPath: src}},
	}

	_, err := Migrate(elected, map[string]struct{}{"conflicted": {}}, filepath.Join(dir, "preferred"))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("expected a conflicted key's source to remain untouched")
	}
}

func TestMigrateSkipsAlreadyAtPreferredRoot(t *testing.T) {
	dir := t.TempDir()
	preferred := filepath.Join(dir, "preferred")
	canonical := filepath.Join(preferred, "my-skill")
	if err := os.MkdirAll(canonical, 0o755); err != nil {
		t.Fatal(err)
	}

	elected := map[string]resolver.Elected{
		"my-skill": {Winner: model.Candidate{Key: "my-skill", CanonicalPath: canonical}},
	}

	failures, err := Migrate(elected, map[string]struct{}{}, preferred)
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected no failures, got %v", failures)
	}
	if elected["my-skill"].Winner.CanonicalPath != canonical {
		t.Fatal("expected canonical path unchanged when already at the preferred root")
	}
}
