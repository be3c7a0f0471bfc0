package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillssync/internal/model"
)

var mcpConfirmed bool
var mcpCodex, mcpClaude, mcpProject bool

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage per-agent enablement of catalogued MCP servers",
}

var mcpSetCmd = &cobra.Command{
	Use:   "set <catalog-id>",
	Short: "Set the per-agent enable flags for a catalog entry",
	Long: `Sets which agent families a catalogued MCP server is projected to.
A catalog id has the shape "global::<key>" or "project::<workspace>::<key>"
(see the output of "skillssyncd list mcp").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled := model.AgentEnablement{Codex: mcpCodex, Claude: mcpClaude, Project: mcpProject}
		logger.Info("setting mcp enablement",
			zap.String("catalog_id", args[0]),
			zap.Bool("codex", mcpCodex), zap.Bool("claude", mcpClaude), zap.Bool("project", mcpProject))
		snap, err := eng.SetMcpEnabled(args[0], enabled, mcpConfirmed)
		if err != nil {
			logger.Warn("set mcp enablement failed", zap.String("catalog_id", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("updated %s: codex=%v claude=%v project=%v\n", args[0], mcpCodex, mcpClaude, mcpProject)
		return nil
	},
}

func init() {
	mcpSetCmd.Flags().BoolVar(&mcpConfirmed, "yes", false, "Confirm the change")
	mcpSetCmd.Flags().BoolVar(&mcpCodex, "codex", false, "Enable for Codex")
	mcpSetCmd.Flags().BoolVar(&mcpClaude, "claude", false, "Enable for Claude")
	mcpSetCmd.Flags().BoolVar(&mcpProject, "project", false, "Enable for the project-local target")
	mcpCmd.AddCommand(mcpSetCmd)
}
