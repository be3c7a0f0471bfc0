package jsonmerge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDocumentPreservesKeyOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"z": 1, "a": 2, "m": 3}`))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	want := []string{"z", "a", "m"}
	got := doc.Keys()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseDocumentEmptyInputYieldsEmptyDocument(t *testing.T) {
	doc, err := ParseDocument(nil)
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(doc.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", doc.Keys())
	}
}

func TestParseDocumentRejectsNonObjectTopLevel(t *testing.T) {
	if _, err := ParseDocument([]byte(`[1, 2, 3]`)); err == nil {
		t.Fatal("expected an error for a non-object top-level value")
	}
}

func TestSetPreservesPositionOnUpdate(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a": 1, "b": 2}`))
	if err != nil {
		t.Fatal(err)
	}
	doc.Set("a", json.RawMessage(`99`))
	got := doc.Keys()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected position preserved, got %v", got)
	}
	raw, _ := doc.Get("a")
	if string(raw) != "99" {
		t.Fatalf("expected updated value, got %s", raw)
	}
}

func TestSetAppendsNewKeyAtEnd(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a": 1}`))
	if err != nil {
		t.Fatal(err)
	}
	doc.Set("b", json.RawMessage(`2`))
	got := doc.Keys()
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("expected b appended at end, got %v", got)
	}
}

func TestDeleteRemovesKeyAndPosition(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a": 1, "b": 2, "c": 3}`))
	if err != nil {
		t.Fatal(err)
	}
	doc.Delete("b")
	got := doc.Keys()
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("expected b removed, got %v", got)
	}
	if _, ok := doc.Get("b"); ok {
		t.Fatal("expected b to be gone")
	}
}

func TestUpsertAtPathMergesWithoutTouchingUnrelatedKeys(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"mcpServers": {"old": {"command": "foo"}, "keep": {"command": "bar"}}, "other": true}`))
	if err != nil {
		t.Fatal(err)
	}

	entries := map[string]json.RawMessage{
		"keep": json.RawMessage(`{"command":"bar"}`),
		"new":  json.RawMessage(`{"command":"baz"}`),
	}
	if err := UpsertAtPath(doc, []string{"mcpServers"}, entries, []string{"old", "keep"}); err != nil {
		t.Fatalf("UpsertAtPath failed: %v", err)
	}

	child, err := doc.ChildObject("mcpServers")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := child.Get("old"); ok {
		t.Fatal("expected 'old' to be removed since it was in removeKeys and absent from entries")
	}
	if _, ok := child.Get("keep"); !ok {
		t.Fatal("expected 'keep' to remain since it was re-supplied in entries")
	}
	if _, ok := child.Get("new"); !ok {
		t.Fatal("expected 'new' to be added")
	}
	if raw, ok := doc.Get("other"); !ok || string(raw) != "true" {
		t.Fatal("expected unrelated top-level key 'other' untouched")
	}
}

func TestUpsertAtPathCreatesNestedObjectWhenAbsent(t *testing.T) {
	doc, err := ParseDocument([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	entries := map[string]json.RawMessage{"a": json.RawMessage(`1`)}
	if err := UpsertAtPath(doc, []string{"mcpServers"}, entries, nil); err != nil {
		t.Fatalf("UpsertAtPath failed: %v", err)
	}
	child, err := doc.ChildObject("mcpServers")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := child.Get("a"); !ok {
		t.Fatal("expected nested object to be created and populated")
	}
}

func TestReadFileMissingYieldsEmptyDocument(t *testing.T) {
	doc, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("ReadFile must not error on a missing file, got %v", err)
	}
	if len(doc.Keys()) != 0 {
		t.Fatalf("expected empty document, got %v", doc.Keys())
	}
}

func TestWriteIfDifferentSkipsIdenticalContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc, err := ParseDocument([]byte(`{"a": 1}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WriteIfDifferent(path, doc); err != nil {
		t.Fatalf("first WriteIfDifferent failed: %v", err)
	}
	info1, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	doc2, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	changed, err := WriteIfDifferent(path, doc2)
	if err != nil {
		t.Fatalf("second WriteIfDifferent failed: %v", err)
	}
	if changed {
		t.Fatal("expected no change for an identical re-render")
	}
	info2, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info1.ModTime() != info2.ModTime() {
		t.Fatal("identical content must not touch mtime")
	}
}

func TestSplitProjectPathStripsTrailingSlash(t *testing.T) {
	if got := SplitProjectPath("/home/x/code/"); got != "/home/x/code" {
		t.Fatalf("got %q", got)
	}
}
