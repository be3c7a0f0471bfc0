// Package jsonmerge implements order-preserving JSON host-document editing
// for the remote-tool registry (spec §4.6, §9): a document is parsed,
// the mcpServers object at a well-defined path is upserted, keys the
// previous write-plan owned but the new plan doesn't are removed, and
// everything else is left untouched including key order.
//
// Standard-library-only by necessity: none of the teacher's or the wider
// pack's dependencies provide an order-preserving JSON document type (the
// pack's TOML libraries don't apply to JSON, and no example repo's own code
// exercises an ordered-map JSON layer even where one is present as a
// transitive dependency) — see DESIGN.md.
package jsonmerge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is an order-preserving JSON object: a top-level map whose key
// order is recorded separately from Go's unordered map, so re-encoding
// doesn't reshuffle keys the user didn't touch.
type Document struct {
	keys   []string
	values map[string]json.RawMessage
}

// ParseDocument parses raw JSON object bytes into an order-preserving
// Document. Empty input yields an empty document.
func ParseDocument(raw []byte) (*Document, error) {
	doc := &Document{values: make(map[string]json.RawMessage)}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return doc, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("jsonmerge: parse document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("jsonmerge: top-level value is not an object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonmerge: parse key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("jsonmerge: non-string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("jsonmerge: parse value for %q: %w", key, err)
		}
		if _, exists := doc.values[key]; !exists {
			doc.keys = append(doc.keys, key)
		}
		doc.values[key] = raw
	}

	return doc, nil
}

// Get returns the raw value for key, if present.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set upserts key, preserving its existing position or appending it at the
// end if new.
func (d *Document) Set(key string, value json.RawMessage) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Delete removes key if present.
func (d *Document) Delete(key string) {
	if _, exists := d.values[key]; !exists {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the document's keys in insertion order.
func (d *Document) Keys() []string { return append([]string(nil), d.keys...) }

// Encode renders the document back to JSON, two-space indented, with keys
// in their preserved order.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range d.keys {
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		indented, err := indentValue(d.values[key], "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		buf.Write(indented)
		if i < len(d.keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}")
	return buf.Bytes(), nil
}

func indentValue(raw json.RawMessage, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, prefix, "  "); err != nil {
		// Not all values are objects/arrays worth indenting; fall back to
		// the raw compact form.
		return raw, nil
	}
	return buf.Bytes(), nil
}

// ChildObject returns the nested object at key as a Document, creating an
// empty one if key is absent. A value at key that is not a JSON object
// yields an error.
func (d *Document) ChildObject(key string) (*Document, error) {
	raw, ok := d.Get(key)
	if !ok {
		return &Document{values: make(map[string]json.RawMessage)}, nil
	}
	return ParseDocument(raw)
}

// SetChildObject re-encodes child and stores it at key.
func (d *Document) SetChildObject(key string, child *Document) error {
	raw, err := child.Encode()
	if err != nil {
		return err
	}
	d.Set(key, raw)
	return nil
}

// UpsertAtPath merges entries into the object reachable by path, one key
// per segment (e.g. ["projects", "/home/x", "mcpServers"]; segments are
// passed separately rather than as one dotted string, so workspace paths
// containing dots stay unambiguous). Keys listed in removeKeys but absent
// from entries are deleted; all other existing keys are untouched.
func UpsertAtPath(root *Document, path []string, entries map[string]json.RawMessage, removeKeys []string) error {
	if len(path) == 0 {
		applyEntries(root, entries, removeKeys)
		return nil
	}

	head := path[0]
	child, err := root.ChildObject(head)
	if err != nil {
		return fmt.Errorf("jsonmerge: read nested object %q: %w", head, err)
	}
	if err := UpsertAtPath(child, path[1:], entries, removeKeys); err != nil {
		return err
	}
	return root.SetChildObject(head, child)
}

func applyEntries(doc *Document, entries map[string]json.RawMessage, removeKeys []string) {
	removeSet := make(map[string]struct{}, len(removeKeys))
	for _, k := range removeKeys {
		removeSet[k] = struct{}{}
	}

	names := make([]string, 0, len(entries))
	for k := range entries {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		doc.Set(k, entries[k])
	}

	for k := range removeSet {
		if _, stillPresent := entries[k]; stillPresent {
			continue
		}
		doc.Delete(k)
	}
}

// ReadFile loads a host JSON document from disk, treating a missing file as
// an empty document so callers can decide (per the locator's create-on-
// absence policy) whether that's acceptable.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ParseDocument(nil)
		}
		return nil, fmt.Errorf("jsonmerge: read %s: %w", path, err)
	}
	return ParseDocument(data)
}

// WriteIfDifferent writes doc to path only if its rendering differs from
// the file's current bytes (spec §5).
func WriteIfDifferent(path string, doc *Document) (changed bool, err error) {
	rendered, err := doc.Encode()
	if err != nil {
		return false, err
	}
	rendered = append(rendered, '\n')

	if existing, readErr := os.ReadFile(path); readErr == nil && bytes.Equal(bytes.TrimRight(existing, "\n"), bytes.TrimRight(rendered, "\n")) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("jsonmerge: create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, rendered, 0o644); err != nil {
		return false, fmt.Errorf("jsonmerge: write %s: %w", path, err)
	}
	return true, nil
}

// SplitProjectPath turns a workspace absolute path into the single JSON key
// used under "projects" in ~/.claude.json (the host stores one key per
// workspace, not a nested path).
func SplitProjectPath(workspace string) string { return strings.TrimRight(workspace, "/") }
