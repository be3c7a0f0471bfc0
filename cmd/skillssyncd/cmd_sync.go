package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillssync/internal/model"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass",
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	logger.Info("running reconciliation pass", zap.String("trigger", string(model.TriggerManual)))
	snap, err := eng.RunSync(model.TriggerManual)
	if err != nil {
		logger.Warn("reconciliation pass failed", zap.Error(err))
		return fmt.Errorf("sync: %w", err)
	}
	logger.Info("reconciliation pass finished",
		zap.String("status", string(snap.Sync.Status)),
		zap.Int64("duration_ms", snap.Sync.DurationMs),
		zap.Int("warnings", len(snap.Sync.Warnings)))

	if asJSON {
		return printJSON(snap)
	}

	fmt.Printf("sync %s in %dms\n", snap.Sync.Status, snap.Sync.DurationMs)
	fmt.Printf("skills: %d global, %d project (%d conflicts)\n",
		snap.Summary.GlobalCount, snap.Summary.ProjectCount, snap.Summary.ConflictCount)
	fmt.Printf("subagents: %d global, %d project (%d conflicts)\n",
		snap.SubagentSummary.GlobalCount, snap.SubagentSummary.ProjectCount, snap.SubagentSummary.ConflictCount)
	fmt.Printf("mcp servers: %d (%d warnings)\n", snap.Summary.MCPCount, snap.Summary.MCPWarningCount)
	for _, w := range snap.Sync.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
