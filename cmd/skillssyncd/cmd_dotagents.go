package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"skillssync/internal/dotagents"
)

// dotagentsCmd groups the strict-package-manager collaborator subcommands,
// mirroring the original skillssync-cli's Commands enum (Sync, Watch,
// Skills, Mcp, MigrateDotagents, Doctor). Unlike the rest of this CLI, these
// commands never touch the reconciliation engine's resolve/commit pipeline
// — they shell out to the dotagents binary directly, the way the original
// implementation did.
var dotagentsCmd = &cobra.Command{
	Use:   "dotagents",
	Short: "Drive the separately-packaged strict dotagents package manager",
	Long: `dotagents wraps the external dotagents binary: a strict package
manager for skills and MCP servers that this engine locates, verifies, and
invokes but never embeds. Every subcommand here accepts --scope
(all|user|project, default "all") the same way the original CLI did.`,
}

var dotagentsScope string

func validateDotagentsScope() error {
	switch dotagentsScope {
	case "all", "user", "project":
		return nil
	default:
		return fmt.Errorf("unsupported scope: %s (all|user|project)", dotagentsScope)
	}
}

func dotagentsUserScope() bool { return dotagentsScope == "user" }

func newDotagentsAdapter() *dotagents.Adapter {
	return dotagents.NewAdapter(dotagents.NewRuntimeManager(eng.Roots.Home))
}

var dotagentsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a strict dotagents sync and frozen-install pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		logger.Info("running strict dotagents sync", zap.String("scope", dotagentsScope))

		if _, err := adapter.Run([]string{"sync", "--scope", dotagentsScope}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			logger.Warn("strict dotagents sync failed", zap.Error(err))
			return err
		}
		if _, err := adapter.Run([]string{"install", "--frozen", "--scope", dotagentsScope}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			logger.Warn("strict dotagents frozen install failed", zap.Error(err))
			return err
		}

		skills, err := adapter.RunJSON([]string{"skills", "list", "--scope", dotagentsScope, "--json"}, eng.Roots.Home, dotagentsUserScope())
		if err != nil {
			return err
		}
		mcp, err := adapter.RunJSON([]string{"mcp", "list", "--scope", dotagentsScope, "--json"}, eng.Roots.Home, dotagentsUserScope())
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(map[string]interface{}{"scope": dotagentsScope, "skills": skills, "mcp_servers": mcp})
		}
		fmt.Printf("strict-sync ok scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate existing skill/MCP state onto the strict dotagents layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		logger.Info("migrating to strict dotagents layout", zap.String("scope", dotagentsScope))
		if _, err := adapter.Run([]string{"migrate", "--scope", dotagentsScope}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			logger.Warn("migration to strict dotagents layout failed", zap.Error(err))
			return err
		}
		fmt.Printf("migration completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Print diagnostics for the strict dotagents collaborator",
	RunE: func(cmd *cobra.Command, args []string) error {
		adapter := newDotagentsAdapter()
		resolved, err := adapter.EnsureAvailable()
		if err != nil {
			fmt.Printf("dotagents_binary=unavailable (%s)\n", err)
			return nil
		}
		fmt.Printf("home=%s\n", eng.Roots.Home)
		fmt.Printf("runtime=%s\n", eng.Roots.RuntimeDir)
		fmt.Printf("dotagents_binary=%s\n", resolved.Path)
		fmt.Printf("dotagents_binary_source=%d\n", resolved.Source)
		return nil
	},
}

var dotagentsSkillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage packages through the strict dotagents skills surface",
}

var dotagentsSkillsInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Run a frozen install via the strict dotagents collaborator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		if _, err := adapter.Run([]string{"install", "--frozen", "--scope", dotagentsScope}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("skills install completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsSkillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills known to the strict dotagents collaborator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		raw, err := adapter.RunJSON([]string{"skills", "list", "--scope", dotagentsScope, "--json"}, eng.Roots.Home, dotagentsUserScope())
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	},
}

var dotagentsSkillsAddCmd = &cobra.Command{
	Use:   "add <package>",
	Short: "Add a package through the strict dotagents collaborator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		if _, err := adapter.Run([]string{"add", args[0]}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("skills add completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsSkillsRemoveCmd = &cobra.Command{
	Use:   "remove <package>",
	Short: "Remove a package through the strict dotagents collaborator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		if _, err := adapter.Run([]string{"remove", args[0]}, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("skills remove completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsSkillsUpdateCmd = &cobra.Command{
	Use:   "update [package]",
	Short: "Update one or all packages through the strict dotagents collaborator",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		cmdArgs := []string{"update"}
		cmdArgs = append(cmdArgs, args...)
		if _, err := adapter.Run(cmdArgs, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("skills update completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsMcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage MCP servers through the strict dotagents collaborator",
}

var dotagentsMcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List MCP servers known to the strict dotagents collaborator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		raw, err := adapter.RunJSON([]string{"mcp", "list", "--scope", dotagentsScope, "--json"}, eng.Roots.Home, dotagentsUserScope())
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	},
}

var dotagentsMcpAddCmd = &cobra.Command{
	Use:   "add -- <args...>",
	Short: "Add an MCP server through the strict dotagents collaborator",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		cmdArgs := append([]string{"mcp", "add"}, args...)
		if _, err := adapter.Run(cmdArgs, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("mcp add completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

var dotagentsMcpRemoveCmd = &cobra.Command{
	Use:   "remove -- <args...>",
	Short: "Remove an MCP server through the strict dotagents collaborator",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateDotagentsScope(); err != nil {
			return err
		}
		adapter := newDotagentsAdapter()
		cmdArgs := append([]string{"mcp", "remove"}, args...)
		if _, err := adapter.Run(cmdArgs, eng.Roots.Home, dotagentsUserScope()); err != nil {
			return err
		}
		fmt.Printf("mcp remove completed for scope=%s\n", dotagentsScope)
		return nil
	},
}

func init() {
	dotagentsCmd.PersistentFlags().StringVar(&dotagentsScope, "scope", "all", "Scope to operate on (all, user, project)")

	dotagentsSkillsCmd.AddCommand(
		dotagentsSkillsInstallCmd,
		dotagentsSkillsListCmd,
		dotagentsSkillsAddCmd,
		dotagentsSkillsRemoveCmd,
		dotagentsSkillsUpdateCmd,
	)
	dotagentsMcpCmd.AddCommand(dotagentsMcpListCmd, dotagentsMcpAddCmd, dotagentsMcpRemoveCmd)

	dotagentsCmd.AddCommand(
		dotagentsSyncCmd,
		dotagentsMigrateCmd,
		dotagentsDoctorCmd,
		dotagentsSkillsCmd,
		dotagentsMcpCmd,
	)
}
