package mcpregistry

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"skillssync/internal/configfile/tomlblock"
	"skillssync/internal/model"
)

// catalogTOMLEntry is the TOML shape persisted for one catalog entry inside
// the central catalog's managed block.
type catalogTOMLEntry struct {
	ID                  string            `toml:"id"`
	Scope               string            `toml:"scope"`
	Workspace           string            `toml:"workspace,omitempty"`
	ServerKey           string            `toml:"server_key"`
	Transport           string            `toml:"transport"`
	Command             string            `toml:"command,omitempty"`
	Args                []string          `toml:"args,omitempty"`
	URL                 string            `toml:"url,omitempty"`
	Env                 map[string]string `toml:"env,omitempty"`
	Codex               bool              `toml:"codex"`
	Claude              bool              `toml:"claude"`
	Project             bool              `toml:"project"`
	ProjectClaudeTarget string            `toml:"project_claude_target,omitempty"`
}

type catalogTOMLDocument struct {
	Entries []catalogTOMLEntry `toml:"entries"`
}

// LoadCatalog reads the central catalog's managed block, if present. An
// empty or missing catalog file yields an empty entry list, which signals
// Bootstrap should run.
func LoadCatalog(path string) ([]CatalogEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mcpregistry: read catalog %s: %w", path, err)
	}

	body := extractBlockBody(string(raw), tomlblock.CentralCatalogMarkers)
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var doc catalogTOMLDocument
	if _, err := toml.Decode(body, &doc); err != nil {
		return nil, fmt.Errorf("mcpregistry: decode catalog block: %w", err)
	}

	out := make([]CatalogEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		out = append(out, CatalogEntry{
			CatalogID:           e.ID,
			Scope:               model.Scope(e.Scope),
			Workspace:           e.Workspace,
			ServerKey:           e.ServerKey,
			Transport:           model.Transport(e.Transport),
			Command:             e.Command,
			Args:                e.Args,
			URL:                 e.URL,
			Env:                 e.Env,
			Enabled:             model.AgentEnablement{Codex: e.Codex, Claude: e.Claude, Project: e.Project},
			ProjectClaudeTarget: e.ProjectClaudeTarget,
		})
	}
	return out, nil
}

// SaveCatalog regenerates the central catalog's managed block and writes it
// to path if the rendered content differs from what's on disk.
func SaveCatalog(path string, entries []CatalogEntry) (changed bool, err error) {
	sorted := append([]CatalogEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CatalogID < sorted[j].CatalogID })

	var body strings.Builder
	for _, e := range sorted {
		body.WriteString("[[entries]]\n")
		writeTOMLField(&body, "id", e.CatalogID)
		writeTOMLField(&body, "scope", string(e.Scope))
		if e.Workspace != "" {
			writeTOMLField(&body, "workspace", e.Workspace)
		}
		writeTOMLField(&body, "server_key", e.ServerKey)
		writeTOMLField(&body, "transport", string(e.Transport))
		if e.Command != "" {
			writeTOMLField(&body, "command", e.Command)
		}
		if len(e.Args) > 0 {
			writeTOMLArray(&body, "args", e.Args)
		}
		if e.URL != "" {
			writeTOMLField(&body, "url", e.URL)
		}
		body.WriteString("codex = " + strconv.FormatBool(e.Enabled.Codex) + "\n")
		body.WriteString("claude = " + strconv.FormatBool(e.Enabled.Claude) + "\n")
		body.WriteString("project = " + strconv.FormatBool(e.Enabled.Project) + "\n")
		if e.ProjectClaudeTarget != "" {
			writeTOMLField(&body, "project_claude_target", e.ProjectClaudeTarget)
		}
		if len(e.Env) > 0 {
			writeTOMLTable(&body, "env", e.Env)
		}
		body.WriteString("\n")
	}

	existing, _ := os.ReadFile(path)
	rendered := tomlblock.Upsert(existing, tomlblock.CentralCatalogMarkers, body.String())
	return tomlblock.WriteIfDifferent(path, rendered)
}

func writeTOMLField(b *strings.Builder, key, value string) {
	b.WriteString(key + " = " + quoteTOMLString(value) + "\n")
}

func writeTOMLArray(b *strings.Builder, key string, values []string) {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = quoteTOMLString(v)
	}
	b.WriteString(key + " = [" + strings.Join(quoted, ", ") + "]\n")
}

// quoteTOMLString renders a basic TOML string literal, escaping quotes and
// backslashes. Bespoke by design (spec §9): the managed block must remain
// lexically stable across runs, so this avoids handing formatting control
// to a general-purpose encoder.
func quoteTOMLString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// writeTOMLTable renders values as a nested [entries.<key>] table following
// the current [[entries]] array element.
func writeTOMLTable(b *strings.Builder, key string, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\n[entries." + key + "]\n")
	for _, k := range keys {
		writeTOMLField(b, k, values[k])
	}
}

func extractBlockBody(text string, markers tomlblock.Markers) string {
	beginIdx := strings.Index(text, markers.Begin)
	if beginIdx < 0 {
		return ""
	}
	afterBegin := beginIdx + len(markers.Begin)
	endIdx := strings.Index(text[afterBegin:], markers.End)
	if endIdx < 0 {
		return text[afterBegin:]
	}
	return text[afterBegin : afterBegin+endIdx]
}
