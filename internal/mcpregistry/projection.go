package mcpregistry

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"skillssync/internal/configfile/jsonmerge"
	"skillssync/internal/configfile/tomlblock"
	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
)

// ProjectionResult carries everything the façade needs to assemble the
// snapshot and persist the write-plan manifest after one registry run.
type ProjectionResult struct {
	Records     []model.McpServerRecord
	NewTargets  map[string][]string // host path -> catalog ids written there
	Warnings    []string
}

// Project computes and performs the write-plan for every catalog entry
// (spec §4.6 "Projection", "Managed-block upsert", "JSON merge",
// "Unmanaged collision guard", "Inline-secret detection").
func Project(roots pathresolver.Roots, entries []CatalogEntry, previousPlan WritePlan) (ProjectionResult, error) {
	result := ProjectionResult{NewTargets: make(map[string][]string)}

	sorted := append([]CatalogEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CatalogID < sorted[j].CatalogID })

	codexTargets := make(map[string][]CatalogEntry) // host path -> entries
	jsonTargets := make(map[string]jsonTarget)       // host path -> target descriptor + entries

	for _, e := range sorted {
		record := model.McpServerRecord{
			ServerKey:      e.ServerKey,
			Scope:          e.Scope,
			Workspace:      e.Workspace,
			Transport:      e.Transport,
			Command:        e.Command,
			Args:           e.Args,
			URL:            e.URL,
			Env:            e.Env,
			EnabledByAgent: e.Enabled,
			Warnings:       InlineSecretWarnings(e),
		}

		if e.Enabled.Codex {
			host := codexHostFor(roots, e)
			codexTargets[host] = append(codexTargets[host], e)
			record.Targets = append(record.Targets, host)
		}

		if e.Enabled.Claude {
			host, path := claudeJSONTargetFor(roots, e)
			jt := jsonTargets[host]
			jt.path = path
			jt.entries = append(jt.entries, e)
			jsonTargets[host] = jt
			record.Targets = append(record.Targets, host)
		}

		sort.Strings(record.Targets)
		result.Records = append(result.Records, record)
		result.Warnings = append(result.Warnings, record.Warnings...)
	}

	if err := projectCodexTargets(codexTargets, previousPlan, &result); err != nil {
		return result, err
	}
	if err := projectJSONTargets(jsonTargets, previousPlan, &result); err != nil {
		return result, err
	}

	sort.Strings(result.Warnings)
	return result, nil
}

func codexHostFor(roots pathresolver.Roots, e CatalogEntry) string {
	if e.Scope == model.ScopeGlobal {
		return roots.CodexGlobalConfig()
	}
	return pathresolver.ProjectCodexConfig(e.Workspace)
}

// jsonTarget groups entries destined for one host JSON document at one
// merge path within that document.
type jsonTarget struct {
	path    []string // merge path within the document, e.g. ["mcpServers"] or ["projects", ws, "mcpServers"]
	entries []CatalogEntry
}

func claudeJSONTargetFor(roots pathresolver.Roots, e CatalogEntry) (host string, path []string) {
	if e.Scope == model.ScopeGlobal {
		return effectiveGlobalClaudeTarget(roots), []string{"mcpServers"}
	}
	if e.ProjectClaudeTarget == ProjectClaudeTargetClaudeJSONNest {
		return roots.ClaudeUserGlobalConfig(), []string{"projects", jsonmerge.SplitProjectPath(e.Workspace), "mcpServers"}
	}
	return pathresolver.ProjectClaudeJSON(e.Workspace), []string{"mcpServers"}
}

// effectiveGlobalClaudeTarget prefers ~/.claude.json if it exists, else
// falls back to ~/.claude/settings.local.json (spec §4.6).
func effectiveGlobalClaudeTarget(roots pathresolver.Roots) string {
	if fileExists(roots.ClaudeUserGlobalConfig()) {
		return roots.ClaudeUserGlobalConfig()
	}
	return roots.ClaudeLocalGlobalConfig()
}

func projectCodexTargets(targets map[string][]CatalogEntry, previousPlan WritePlan, result *ProjectionResult) error {
	paths := make([]string, 0, len(targets))
	for p := range targets {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, host := range paths {
		entries := targets[host]
		unmanaged, err := tomlblock.UnmanagedServerKeys(host, tomlblock.CodexProjectionMarkers)
		if err != nil {
			return err
		}

		var kept []CatalogEntry
		locators := make([]string, 0, len(entries))
		for _, e := range entries {
			if _, collides := unmanaged[e.ServerKey]; collides {
				result.Warnings = append(result.Warnings, "codex server key "+e.ServerKey+" at "+host+" collides with an unmanaged entry; dropped from managed block")
				continue
			}
			kept = append(kept, e)
			locators = append(locators, e.CatalogID)
		}

		body := renderCodexBlockBody(kept)
		existing := readFileOrEmpty(host)
		rendered := tomlblock.Upsert(existing, tomlblock.CodexProjectionMarkers, body)
		if _, err := tomlblock.WriteIfDifferent(host, rendered); err != nil {
			return err
		}

		sort.Strings(locators)
		result.NewTargets[host] = locators
	}
	return nil
}

func renderCodexBlockBody(entries []CatalogEntry) string {
	sort.Slice(entries, func(i, j int) bool { return entries[i].ServerKey < entries[j].ServerKey })

	var b strings.Builder
	for _, e := range entries {
		b.WriteString("[mcp_servers." + e.ServerKey + "]\n")
		if e.Command != "" {
			b.WriteString("command = " + quoteTOMLString(e.Command) + "\n")
		}
		if len(e.Args) > 0 {
			writeTOMLArray(&b, "args", e.Args)
		}
		if e.URL != "" {
			b.WriteString("url = " + quoteTOMLString(e.URL) + "\n")
		}
		if len(e.Env) > 0 {
			keys := make([]string, 0, len(e.Env))
			for k := range e.Env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			b.WriteString("\n[mcp_servers." + e.ServerKey + ".env]\n")
			for _, k := range keys {
				writeTOMLField(&b, k, e.Env[k])
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func projectJSONTargets(targets map[string]jsonTarget, previousPlan WritePlan, result *ProjectionResult) error {
	hosts := make([]string, 0, len(targets))
	for h := range targets {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		jt := targets[host]

		if !fileExists(host) && !locatorAllowsCreate(jt) {
			if len(jt.entries) > 0 {
				result.Warnings = append(result.Warnings, "skipped writing "+host+": host file does not exist and is not managed for creation")
			}
			continue
		}

		doc, err := jsonmerge.ReadFile(host)
		if err != nil {
			return err
		}

		entryJSON := make(map[string]json.RawMessage, len(jt.entries))
		locators := make([]string, 0, len(jt.entries))
		for _, e := range jt.entries {
			raw, err := encodeServerJSON(e)
			if err != nil {
				return err
			}
			entryJSON[e.ServerKey] = raw
			locators = append(locators, e.CatalogID)
		}

		previousKeys := previousPlan.PreviousKeysFor(host)
		removeKeys := make([]string, 0, len(previousKeys))
		for k := range previousKeys {
			removeKeys = append(removeKeys, k)
		}

		if err := jsonmerge.UpsertAtPath(doc, jt.path, entryJSON, removeKeys); err != nil {
			return err
		}
		if _, err := jsonmerge.WriteIfDifferent(host, doc); err != nil {
			return err
		}

		sort.Strings(locators)
		result.NewTargets[host] = locators
	}
	return nil
}

// locatorAllowsCreate reports whether this host file may be created from
// scratch when missing. Project-scoped host files are never auto-created
// (spec §4.6 "JSON merge" final paragraph); global host files may be.
func locatorAllowsCreate(jt jsonTarget) bool {
	for _, e := range jt.entries {
		if e.Scope == model.ScopeProject {
			return false
		}
	}
	return true
}

func encodeServerJSON(e CatalogEntry) (json.RawMessage, error) {
	entry := jsonServerEntry{Command: e.Command, Args: e.Args, URL: e.URL, Env: e.Env}
	return json.Marshal(entry)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFileOrEmpty(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}
