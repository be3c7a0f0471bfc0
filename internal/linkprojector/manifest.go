package linkprojector

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// LoadManifest reads a managed-links manifest, tolerating a missing or
// corrupt file by returning an empty manifest (spec §5: "callers must
// tolerate a crash between two rewrites by re-reading defaults on parse
// failure").
func LoadManifest(path string) Manifest {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{Version: 1}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{Version: 1}
	}
	return m
}

// SaveManifest whole-file rewrites a managed-links manifest with a trailing
// newline.
func SaveManifest(path string, links []string) error {
	sorted := append([]string(nil), links...)
	sort.Strings(sorted)

	m := Manifest{
		Version:      1,
		GeneratedAt:  time.Now().UTC().Format(time.RFC3339),
		ManagedLinks: sorted,
	}

	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("linkprojector: marshal manifest: %w", err)
	}
	out = append(out, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("linkprojector: create dir for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("linkprojector: write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
