package lifecycle

import (
	"encoding/json"
	"os"
	"path/filepath"

	"skillssync/internal/skillserrors"
)

func writeManifest(path string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &skillserrors.JSONError{Cause: err}
	}
	out = append(out, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &skillserrors.IOError{Path: path, Cause: err}
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return &skillserrors.IOError{Path: path, Cause: err}
	}
	return nil
}
