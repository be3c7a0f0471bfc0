package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"skillssync/internal/model"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List reconciled skills, subagents, or MCP servers",
}

var listScope string

var listSkillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List elected skill packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := eng.RunSync(model.TriggerManual); err != nil {
			return err
		}
		records := eng.ListSkills(model.Scope(listScope))
		if asJSON {
			return printJSON(records)
		}
		for _, r := range records {
			fmt.Printf("%s\t%-8s %-20s %s\n", r.ID, r.Scope, r.SkillKey, r.CanonicalSourcePath)
		}
		return nil
	},
}

var listSubagentsCmd = &cobra.Command{
	Use:   "subagents",
	Short: "List elected subagent definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := eng.RunSync(model.TriggerManual); err != nil {
			return err
		}
		records := eng.ListSubagents(model.Scope(listScope))
		if asJSON {
			return printJSON(records)
		}
		for _, r := range records {
			fmt.Printf("%s\t%-8s %-20s %s\n", r.ID, r.Scope, r.SubagentKey, r.CanonicalSourcePath)
		}
		return nil
	},
}

var listMcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "List discovered MCP server declarations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := eng.RunSync(model.TriggerManual); err != nil {
			return err
		}
		records := eng.ListMcpServers()
		if asJSON {
			return printJSON(records)
		}
		for _, r := range records {
			fmt.Printf("%-30s %-8s %-6s targets=%d warnings=%d\n",
				r.ServerKey, r.Scope, r.Transport, len(r.Targets), len(r.Warnings))
		}
		return nil
	},
}

func init() {
	listCmd.PersistentFlags().StringVar(&listScope, "scope", "", "Filter by scope (global, project)")
	listCmd.AddCommand(listSkillsCmd, listSubagentsCmd, listMcpCmd)
}
