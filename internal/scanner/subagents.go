package scanner

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"skillssync/internal/model"
)

// frontMatter is the subset of a subagent's front-matter block this engine
// cares about (spec §4.2). Unknown keys are tolerated.
type frontMatter struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Model       string      `yaml:"model"`
	Tools       interface{} `yaml:"tools"` // array or comma-separated string
}

// ScanSubagents walks roots (depth 1) for .md files with a well-formed
// front-matter block whose name matches the file stem (spec §4.2).
func ScanSubagents(roots []string, scope model.Scope, workspace string) ([]model.Candidate, error) {
	var out []model.Candidate
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			stem := strings.TrimSuffix(entry.Name(), ".md")
			if HasProtectedSegment(stem) {
				continue
			}

			path := filepath.Join(root, entry.Name())
			cand, ok, err := parseSubagentFile(path, stem, root, scope, workspace)
			if err != nil {
				log.Warn("parse subagent %s: %v", path, err)
				continue
			}
			if !ok {
				continue
			}
			out = append(out, cand)
		}
	}
	sortCandidates(out)
	return out, nil
}

func parseSubagentFile(path, stem, root string, scope model.Scope, workspace string) (model.Candidate, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Candidate{}, false, err
	}

	fm, ok, err := extractFrontMatter(raw)
	if err != nil {
		return model.Candidate{}, false, fmt.Errorf("front-matter: %w", err)
	}
	if !ok {
		return model.Candidate{}, false, nil
	}
	if fm.Name != stem {
		return model.Candidate{}, false, nil
	}
	if strings.TrimSpace(fm.Description) == "" {
		return model.Candidate{}, false, nil
	}

	return model.Candidate{
		Kind:          model.KindSubagent,
		Scope:         scope,
		Workspace:     workspace,
		Key:           stem,
		SourceRoot:    root,
		CanonicalPath: path,
		ContentHash:   model.FileContentHash(raw),
		Description:   fm.Description,
		Model:         fm.Model,
		Tools:         normalizeTools(fm.Tools),
	}, true, nil
}

// extractFrontMatter parses a leading "---\n…\n---\n" block. It returns
// ok=false (not an error) when the file doesn't start with a front-matter
// delimiter at all, since that's simply not a subagent package rather than
// a malformed one.
func extractFrontMatter(raw []byte) (frontMatter, bool, error) {
	const delim = "---"

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return frontMatter{}, false, nil
	}
	if strings.TrimRight(scanner.Text(), "\r") != delim {
		return frontMatter{}, false, nil
	}

	var block strings.Builder
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimRight(line, "\r") == delim {
			closed = true
			break
		}
		block.WriteString(line)
		block.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return frontMatter{}, false, err
	}
	if !closed {
		return frontMatter{}, false, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(block.String()), &fm); err != nil {
		return frontMatter{}, false, err
	}
	return fm, true, nil
}

// normalizeTools accepts either a YAML array or a comma-separated string
// for the optional "tools" front-matter field (spec §4.2).
func normalizeTools(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}
