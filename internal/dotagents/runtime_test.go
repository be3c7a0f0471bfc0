package dotagents

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"skillssync/internal/skillserrors"
)

func writeFakeBinary(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o755); err != nil {
		t.Fatal(err)
	}
}

func TestResolveBinaryPrefersOverridePath(t *testing.T) {
	home := t.TempDir()
	binPath := filepath.Join(home, dotagentsBinaryName())
	writeFakeBinary(t, binPath, "#!/bin/sh\necho ok\n")

	m := &RuntimeManager{HomeDirectory: home, OverrideBinary: binPath}
	resolved, err := m.ResolveBinary()
	if err != nil {
		t.Fatalf("ResolveBinary failed: %v", err)
	}
	if resolved.Path != binPath || resolved.Source != SourceOverride {
		t.Fatalf("expected override resolution, got %+v", resolved)
	}
}

func TestVerifyVersionOutputRejectsMismatch(t *testing.T) {
	m := &RuntimeManager{HomeDirectory: t.TempDir()}

	if err := m.VerifyVersionOutput("dotagents 0.10.0"); err != nil {
		t.Fatalf("expected matching version to pass, got %v", err)
	}

	err := m.VerifyVersionOutput("dotagents 9.9.9")
	var mismatch *skillserrors.ExternalVersionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected ExternalVersionMismatchError, got %T: %v", err, err)
	}
}

func TestVerifyVersionOutputRejectsSupersetVersionStrings(t *testing.T) {
	m := &RuntimeManager{HomeDirectory: t.TempDir()}

	err := m.VerifyVersionOutput("dotagents 10.10.0")
	var mismatch *skillserrors.ExternalVersionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected a superset version string to be rejected, got %v", err)
	}
}

func TestVerifyChecksumReportsMismatchForBundledBinary(t *testing.T) {
	home := t.TempDir()
	target := currentTargetOrSkip(t)
	binDir := filepath.Join(home, "dotagents", target.identifier())
	binPath := filepath.Join(binDir, dotagentsBinaryName())
	writeFakeBinary(t, binPath, "binary")

	m := &RuntimeManager{HomeDirectory: home, BundledRootOverride: home, ChecksumOverride: "deadbeef"}
	resolved, err := m.ResolveBinary()
	if err != nil {
		t.Fatalf("expected bundled resolution to succeed, got %v", err)
	}
	if resolved.Source != SourceBundled {
		t.Fatalf("expected bundled source, got %v", resolved.Source)
	}

	err = m.VerifyChecksum(resolved)
	var mismatch *skillserrors.ExternalChecksumMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestResolveBinarySkipsUnverifiableBundledBinary(t *testing.T) {
	home := t.TempDir()
	target := currentTargetOrSkip(t)
	binDir := filepath.Join(home, "dotagents", target.identifier())
	binPath := filepath.Join(binDir, dotagentsBinaryName())
	writeFakeBinary(t, binPath, "binary")

	m := &RuntimeManager{HomeDirectory: home, BundledRootOverride: home, DisablePathLookup: true}
	_, err := m.ResolveBinary()
	var unavailable *skillserrors.ExternalProcessUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected a bundled binary without a checksum manifest entry to be rejected, got %v", err)
	}
}

func TestResolveBinaryFindsBundledBinaryInBinDotagentsLayout(t *testing.T) {
	home := t.TempDir()
	target := currentTargetOrSkip(t)
	binDir := filepath.Join(home, "bin", "dotagents", target.identifier())
	binPath := filepath.Join(binDir, dotagentsBinaryName())
	writeFakeBinary(t, binPath, "binary")

	m := &RuntimeManager{HomeDirectory: home, BundledRootOverride: home, ChecksumOverride: "test-checksum"}
	resolved, err := m.ResolveBinary()
	if err != nil {
		t.Fatalf("expected resolution under bin/dotagents layout, got %v", err)
	}
	if resolved.Source != SourceBundled || resolved.Path != binPath {
		t.Fatalf("expected %s, got %+v", binPath, resolved)
	}
}

func currentTargetOrSkip(t *testing.T) Target {
	t.Helper()
	target, err := currentTarget()
	if err != nil {
		t.Skipf("unsupported target for this test host: %v", err)
	}
	return target
}
