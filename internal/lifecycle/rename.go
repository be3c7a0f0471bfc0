package lifecycle

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/scanner"
	"skillssync/internal/skillserrors"
)

var renameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey implements spec §4.7's rename normalization: lower-case,
// keep digits and ASCII letters, collapse every other run of characters to
// a single hyphen, and trim leading/trailing hyphens.
func NormalizeKey(title string) string {
	lower := strings.ToLower(title)
	collapsed := renameUnsafe.ReplaceAllString(lower, "-")
	return strings.Trim(collapsed, "-")
}

// Rename moves a skill's canonical directory to the preferred location for
// its new key, then rewrites SKILL.md's front-matter title field,
// reverting the move if the rewrite fails (spec §4.7).
func Rename(roots pathresolver.Roots, scope model.Scope, workspace, oldKey, newTitle, canonicalSource string) (newPath, newKey string, err error) {
	newKey = NormalizeKey(newTitle)
	if newKey == "" {
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonEmptyKey}
	}
	if newKey == oldKey {
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonNoOp}
	}
	if scanner.HasProtectedSegment(newKey) {
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonProtected}
	}
	if _, err := os.Lstat(canonicalSource); err != nil {
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonSrcMissing}
	}

	if scope == model.ScopeProject {
		newPath = filepath.Join(pathresolver.PreferredProjectSkillRoot(workspace), newKey)
	} else {
		newPath = filepath.Join(roots.PreferredGlobalSkillRoot(), newKey)
	}

	if _, err := os.Lstat(newPath); err == nil {
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonDstExists}
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return "", "", &skillserrors.IOError{Path: newPath, Cause: err}
	}
	if err := os.Rename(canonicalSource, newPath); err != nil {
		return "", "", &skillserrors.IOError{Path: canonicalSource, Cause: err}
	}

	manifestPath := filepath.Join(newPath, "SKILL.md")
	if err := rewriteTitle(manifestPath, newTitle); err != nil {
		// Revert the move; the rename as a whole failed.
		if revertErr := os.Rename(newPath, canonicalSource); revertErr != nil {
			log.Error("rename %s: could not revert move; package left at %s: %v", oldKey, newPath, revertErr)
		}
		return "", "", &skillserrors.RenameError{Reason: skillserrors.RenameReasonFrontMatter}
	}

	log.Info("renamed %s -> %s", oldKey, newKey)
	return newPath, newKey, nil
}

// PromoteToGlobal moves a project-scope skill to the preferred global
// location (spec §4.7).
func PromoteToGlobal(roots pathresolver.Roots, key, canonicalSource string) (newPath string, err error) {
	if scanner.HasProtectedSegment(key) {
		return "", &skillserrors.ProtectedPathError{Path: canonicalSource}
	}
	if _, err := os.Lstat(canonicalSource); err != nil {
		return "", &skillserrors.TargetMissingError{Path: canonicalSource}
	}

	newPath = filepath.Join(roots.PreferredGlobalSkillRoot(), key)
	if _, err := os.Lstat(newPath); err == nil {
		return "", &skillserrors.TargetExistsError{Path: newPath}
	}

	if err := os.MkdirAll(filepath.Dir(newPath), 0o755); err != nil {
		return "", &skillserrors.IOError{Path: newPath, Cause: err}
	}
	if err := os.Rename(canonicalSource, newPath); err != nil {
		return "", &skillserrors.IOError{Path: canonicalSource, Cause: err}
	}

	log.Info("promoted %s -> %s", key, newPath)
	return newPath, nil
}

// rewriteTitle rewrites (or inserts) the "title:" line in a SKILL.md
// front-matter block. Bespoke line scanning rather than a YAML round-trip,
// consistent with this module's managed-block philosophy: front-matter
// formatting a human wrote should survive untouched except for the one
// field this operation owns.
func rewriteTitle(path, newTitle string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return fmt.Errorf("rewriteTitle: %s has no front-matter block", path)
	}

	endIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			endIdx = i
			break
		}
	}
	if endIdx < 0 {
		return fmt.Errorf("rewriteTitle: %s front-matter block never closes", path)
	}

	titleLine := "title: " + newTitle
	found := false
	for i := 1; i < endIdx; i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "title:") {
			lines[i] = titleLine
			found = true
			break
		}
	}
	if !found {
		head := append([]string(nil), lines[:endIdx]...)
		head = append(head, titleLine)
		lines = append(head, lines[endIdx:]...)
	}

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	w.WriteString(strings.Join(lines, "\n"))
	w.Flush()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
