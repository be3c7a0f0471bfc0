package scanner

import (
	"path/filepath"
	"testing"

	"skillssync/internal/model"
)

func TestScanSubagentsFindsWellFormedAgent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reviewer.md"), "---\nname: reviewer\ndescription: reviews code\nmodel: opus\ntools: read, write\n---\n\nbody\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatalf("ScanSubagents failed: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	c := cands[0]
	if c.Key != "reviewer" || c.Description != "reviews code" || c.Model != "opus" {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if len(c.Tools) != 2 || c.Tools[0] != "read" || c.Tools[1] != "write" {
		t.Fatalf("expected parsed comma-separated tools, got %v", c.Tools)
	}
}

func TestScanSubagentsAcceptsArrayTools(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reviewer.md"), "---\nname: reviewer\ndescription: reviews code\ntools:\n  - read\n  - write\n---\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 || len(cands[0].Tools) != 2 {
		t.Fatalf("expected array-form tools parsed, got %+v", cands)
	}
}

func TestScanSubagentsRejectsNameMismatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reviewer.md"), "---\nname: other-name\ndescription: reviews code\n---\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected name/filename mismatch to be rejected, got %+v", cands)
	}
}

func TestScanSubagentsRejectsEmptyDescription(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "reviewer.md"), "---\nname: reviewer\ndescription: \"\"\n---\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected empty description to be rejected, got %+v", cands)
	}
}

func TestScanSubagentsRejectsFileWithoutFrontMatter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "readme.md"), "just a normal markdown file\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected a plain markdown file to be skipped, got %+v", cands)
	}
}

func TestScanSubagentsIgnoresNestedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "nested", "reviewer.md"), "---\nname: reviewer\ndescription: reviews code\n---\n")

	cands, err := ScanSubagents([]string{root}, model.ScopeGlobal, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("expected subagent scan to be depth-1 only, got %+v", cands)
	}
}
