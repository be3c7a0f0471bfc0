package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillssync/internal/model"
	"skillssync/internal/pathresolver"
	"skillssync/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch every discovery root and re-sync on settled filesystem activity",
	Long: `Watches the global skill/subagent roots, the central MCP catalog, the
global Codex and Claude host config files, and the project skill/subagent
roots of every workspace that has a skill or subagent record in the latest
snapshot. Project-level host config files are not watched, nor are
workspaces without such a record.
A debounced reconciliation runs 800ms after the last filesystem event in a
burst settles (spec-defined watcher behavior).`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	snap, err := eng.RunSync(model.TriggerStartup)
	if err != nil {
		logger.Warn("initial sync failed", zap.Error(err))
		return fmt.Errorf("initial sync: %w", err)
	}
	fmt.Printf("initial sync: %s, watching for changes (ctrl-c to stop)\n", snap.Sync.Status)

	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	paths := watchPaths(snap)
	logger.Info("starting watcher", zap.Int("watched_paths", len(paths)))
	if err := w.Start(paths); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			logger.Info("watcher stopped by signal")
			fmt.Println("stopped")
			return nil

		case <-w.Changes():
			logger.Debug("filesystem activity settled, resyncing")
			snap, err := eng.RunSync(model.TriggerAutoFilesystem)
			if err != nil {
				logger.Warn("auto-resync failed", zap.Error(err))
				fmt.Printf("sync failed: %v\n", err)
				continue
			}
			fmt.Printf("resynced: %s\n", snap.Sync.Status)
			w.Start(watchPaths(snap))
		}
	}
}

// watchPaths is the set of paths the watcher observes: global
// skill/subagent roots, the central catalog, the four global host config
// files, and the project skill/subagent roots of every workspace that has a
// skill or subagent record in snap. Per-workspace host config files are not
// included.
func watchPaths(snap model.Snapshot) []string {
	roots := eng.Roots
	paths := append([]string(nil), roots.GlobalSkillRoots...)
	paths = append(paths, roots.GlobalSubagentRoots...)
	paths = append(paths, roots.CentralCatalogFile())
	paths = append(paths, roots.CodexGlobalConfig())
	paths = append(paths, roots.ClaudeUserGlobalConfig())
	paths = append(paths, roots.ClaudeLocalGlobalConfig())
	paths = append(paths, roots.ClaudeGlobalGlobalConfig())

	seen := make(map[string]struct{})
	workspaces := make(map[string]struct{})
	for _, r := range snap.Skills {
		if r.Workspace != "" {
			workspaces[r.Workspace] = struct{}{}
		}
	}
	for _, r := range snap.Subagents {
		if r.Workspace != "" {
			workspaces[r.Workspace] = struct{}{}
		}
	}
	for ws := range workspaces {
		paths = append(paths, pathresolver.ProjectSkillRoots(ws)...)
		paths = append(paths, pathresolver.ProjectSubagentRoots(ws)...)
	}

	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
