// Package tomlblock implements the managed-block upsert for TOML host
// configuration files (spec §4.6, §9): the region between a literal begin
// marker and end marker is regenerated verbatim on every write; everything
// outside the markers is preserved byte-for-byte. Rendering is bespoke
// string assembly rather than a round-tripping TOML parser, because the
// markers must remain lexically stable across runs (spec §9) — a generic
// parser would be free to reformat surrounding content in ways a human
// editor didn't ask for.
//
// Reading the *unmanaged* region (for the collision guard, spec §4.6) does
// use a real parser — github.com/BurntSushi/toml — since that's a
// read-only structural parse, not a round-trip-and-preserve rewrite.
package tomlblock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Markers names the begin/end literal comment lines delimiting one managed
// block. Spec §4.6 defines two: the central catalog's own markers, and the
// codex-projection markers used inside host config/toml files.
type Markers struct {
	Begin string
	End   string
}

// CentralCatalogMarkers delimits the authoritative catalog block inside
// <home>/.config/ai-agents/config.toml.
var CentralCatalogMarkers = Markers{Begin: "# skills-sync:mcp:begin", End: "# skills-sync:mcp:end"}

// CodexProjectionMarkers delimits the codex-targeted block inside
// config.toml host files.
var CodexProjectionMarkers = Markers{Begin: "# skills-sync:mcp:codex:begin", End: "# skills-sync:mcp:codex:end"}

// Upsert regenerates the managed block inside existing (a file's current
// bytes), returning the rendered file content without writing it. Callers compare this
// against the file's current bytes before writing, so an unchanged render
// never touches mtime (spec §8 round-trip law).
func Upsert(existing []byte, markers Markers, blockBody string) string {
	text := string(existing)
	block := markers.Begin + "\n" + blockBody + markers.End + "\n"

	beginIdx := strings.Index(text, markers.Begin)
	if beginIdx < 0 {
		if strings.TrimSpace(text) == "" {
			return block
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + "\n" + block
	}

	endMarkerIdx := strings.Index(text[beginIdx:], markers.End)
	if endMarkerIdx < 0 {
		// Malformed: begin marker with no matching end. Treat the rest of
		// the file from the begin marker onward as the block to replace.
		return text[:beginIdx] + block
	}
	endIdx := beginIdx + endMarkerIdx + len(markers.End)
	// Consume a single trailing newline after the end marker, if present,
	// so re-rendering doesn't accumulate blank lines.
	rest := text[endIdx:]
	rest = strings.TrimPrefix(rest, "\n")

	return text[:beginIdx] + block + rest
}

// WriteIfDifferent writes rendered to path only when it differs from the
// file's current content (spec §5: "Host config files are rewritten only
// when the rendered content differs"). A non-existent file counts as
// different from any non-empty render.
func WriteIfDifferent(path, rendered string) (changed bool, err error) {
	existing, readErr := os.ReadFile(path)
	if readErr == nil && string(existing) == rendered {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("tomlblock: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return false, fmt.Errorf("tomlblock: write %s: %w", path, err)
	}
	return true, nil
}

// UnmanagedServerKeys parses path with a real TOML parser and returns the
// set of keys under mcp_servers.* that fall outside any managed block,
// used by the codex collision guard (spec §4.6). A file that can't be
// parsed, or doesn't exist, yields an empty set rather than an error —
// the guard degrades to "no collisions known" rather than blocking sync.
func UnmanagedServerKeys(path string, managedMarkers Markers) (map[string]struct{}, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return map[string]struct{}{}, nil
	}

	withoutManaged := stripManagedBlock(string(raw), managedMarkers)

	var doc struct {
		MCPServers map[string]toml.Primitive `toml:"mcp_servers"`
	}
	if _, err := toml.Decode(withoutManaged, &doc); err != nil {
		return map[string]struct{}{}, nil
	}

	keys := make(map[string]struct{}, len(doc.MCPServers))
	for k := range doc.MCPServers {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func stripManagedBlock(text string, markers Markers) string {
	beginIdx := strings.Index(text, markers.Begin)
	if beginIdx < 0 {
		return text
	}
	endMarkerIdx := strings.Index(text[beginIdx:], markers.End)
	if endMarkerIdx < 0 {
		return text[:beginIdx]
	}
	endIdx := beginIdx + endMarkerIdx + len(markers.End)
	return text[:beginIdx] + text[endIdx:]
}
