package statestore

import (
	"os"
	"path/filepath"
	"testing"

	"skillssync/internal/model"
)

func TestLoadMissingFileReturnsUnknownSnapshot(t *testing.T) {
	snap, err := Load(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("Load of a missing file must not error, got %v", err)
	}
	if snap.Sync.Status != model.SyncUnknown {
		t.Fatalf("expected SyncUnknown, got %v", snap.Sync.Status)
	}
	if snap.Version != model.CurrentSnapshotVersion {
		t.Fatalf("expected stamped version %d, got %d", model.CurrentSnapshotVersion, snap.Version)
	}
}

func TestLoadCorruptFileReturnsUnknownSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := Load(path)
	if err != nil {
		t.Fatalf("Load of a corrupt file must not error, got %v", err)
	}
	if snap.Sync.Status != model.SyncUnknown {
		t.Fatalf("expected SyncUnknown on parse failure, got %v", snap.Sync.Status)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := model.Snapshot{
		Version: model.CurrentSnapshotVersion,
		Sync:    model.SyncInfo{Status: model.SyncOK},
		Skills: []model.SkillRecord{
			{ID: "skill-aaaaaaaaaaaa", SkillKey: "my-skill"},
		},
		TopSkills: []string{"skill-aaaaaaaaaaaa"},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Sync.Status != want.Sync.Status || got.Version != want.Version {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
	if len(got.Skills) != 1 || got.Skills[0].SkillKey != "my-skill" {
		t.Fatalf("expected skill record to survive round trip, got %+v", got.Skills)
	}
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := Save(path, model.Snapshot{Version: 1, Sync: model.SyncInfo{Status: model.SyncOK}}); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, model.Snapshot{Version: 1, Sync: model.SyncInfo{Status: model.SyncFailed}}); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sync.Status != model.SyncFailed {
		t.Fatalf("expected the latest write to win, got %v", got.Sync.Status)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should not remain after a successful rename")
	}
}
