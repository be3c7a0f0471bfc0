package dotagents

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"

	"skillssync/internal/skillserrors"
)

// CommandOutput is a completed collaborator invocation's captured streams.
type CommandOutput struct {
	Stdout string
	Stderr string
}

// Adapter runs the collaborator binary once it has been resolved and
// verified, generalizing the original DotagentsAdapter's ensure_available
// gate (resolve → checksum → --version check) ahead of every command.
type Adapter struct {
	runtime *RuntimeManager
}

// NewAdapter wraps a RuntimeManager.
func NewAdapter(runtime *RuntimeManager) *Adapter {
	return &Adapter{runtime: runtime}
}

// EnsureAvailable resolves the binary, verifies its checksum (when
// bundled), and verifies its reported version, in that order, returning
// the resolved binary for reuse by Run/RunJSON.
func (a *Adapter) EnsureAvailable() (ResolvedBinary, error) {
	binary, err := a.runtime.ResolveBinary()
	if err != nil {
		return ResolvedBinary{}, err
	}
	if err := a.runtime.VerifyChecksum(binary); err != nil {
		return ResolvedBinary{}, err
	}

	out, err := a.executeRaw(binary, []string{"--version"}, a.runtime.HomeDirectory, false)
	if err != nil {
		return ResolvedBinary{}, err
	}
	combined := out.Stdout
	switch {
	case strings.TrimSpace(out.Stderr) == "":
	case strings.TrimSpace(out.Stdout) == "":
		combined = out.Stderr
	default:
		combined = out.Stdout + "\n" + out.Stderr
	}
	if err := a.runtime.VerifyVersionOutput(combined); err != nil {
		return ResolvedBinary{}, err
	}

	return binary, nil
}

// Run ensures availability and executes args in cwd, prefixing --user when
// userScope is set (spec §6: the collaborator distinguishes user-scope and
// project-scope invocations by this flag rather than a separate config
// path).
func (a *Adapter) Run(args []string, cwd string, userScope bool) (CommandOutput, error) {
	binary, err := a.EnsureAvailable()
	if err != nil {
		return CommandOutput{}, err
	}
	return a.executeRaw(binary, args, cwd, userScope)
}

// RunJSON runs args and parses stdout as JSON.
func (a *Adapter) RunJSON(args []string, cwd string, userScope bool) (json.RawMessage, error) {
	out, err := a.Run(args, cwd, userScope)
	if err != nil {
		return nil, err
	}
	var v json.RawMessage
	if err := json.Unmarshal([]byte(out.Stdout), &v); err != nil {
		return nil, &skillserrors.JSONError{Cause: err}
	}
	return v, nil
}

func (a *Adapter) executeRaw(binary ResolvedBinary, args []string, cwd string, userScope bool) (CommandOutput, error) {
	rendered := []string{binary.Path}
	cmd := exec.Command(binary.Path)
	if isWindowsShellScript(binary.Path) {
		rendered = []string{"cmd.exe", "/C", binary.Path}
		cmd = exec.Command("cmd.exe", "/C", binary.Path)
	}

	cmd.Dir = cwd
	cmd.Env = append(cmd.Env,
		"HOME="+a.runtime.HomeDirectory,
		"NO_COLOR=1",
		"DOTAGENTS_NO_COLOR=1",
	)

	if userScope {
		cmd.Args = append(cmd.Args, "--user")
		rendered = append(rendered, "--user")
	}
	cmd.Args = append(cmd.Args, args...)
	rendered = append(rendered, args...)

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := CommandOutput{Stdout: strings.TrimSpace(stdout.String()), Stderr: strings.TrimSpace(stderr.String())}
	if runErr == nil {
		return out, nil
	}

	return CommandOutput{}, &skillserrors.ExternalCommandFailedError{
		Args:   rendered,
		Stderr: out.Stderr,
		Cause:  runErr,
	}
}

func isWindowsShellScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".cmd" || ext == ".bat"
}
