// Package main implements skillssyncd, the CLI front end for the agent
// skills/subagents/remote-tool reconciliation engine.
//
// # File Index
//
//   - main.go        - entry point, rootCmd, global flags, init()
//   - cmd_sync.go     - syncCmd
//   - cmd_list.go     - listCmd and its skills/subagents/mcp subcommands
//   - cmd_delete.go   - deleteCmd
//   - cmd_archive.go  - archiveCmd, restoreCmd
//   - cmd_rename.go   - renameCmd, promoteCmd
//   - cmd_star.go     - starCmd, unstarCmd
//   - cmd_mcp.go      - mcpCmd and its set subcommand
//   - cmd_watch.go    - watchCmd
//   - cmd_dotagents.go - dotagentsCmd, the external strict package manager surface
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"skillssync/internal/engine"
	"skillssync/internal/telemetry"
)

var (
	homeDir    string
	runtimeDir string
	debug      bool
	asJSON     bool

	eng *engine.Engine

	// logger carries structured command-level diagnostics (flag values,
	// sync durations, watcher events) separately from the plain
	// human-readable result lines each command prints to stdout.
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "skillssyncd",
	Short: "Reconcile agent skills, subagents, and MCP server config across hosts",
	Long: `skillssyncd discovers skill packages, subagent definitions, and MCP
server declarations across your home directory and project workspaces,
elects one canonical copy per key, and projects the result onto every
host that wants to see it (Claude, Codex, Cursor, and friends).

Run without arguments to perform a single reconciliation pass.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Encoding = "console"
		config.EncoderConfig.TimeKey = ""
		if debug {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}

		eng = engine.New(homeDir, runtimeDir)
		if debug {
			_ = telemetry.Configure(eng.Roots.LogDir(), true)
		}
		logger.Debug("command starting", zap.String("command", cmd.Name()), zap.Strings("args", args))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "Home directory override (default: $HOME)")
	rootCmd.PersistentFlags().StringVar(&runtimeDir, "runtime-dir", "", "Runtime state directory override")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable category-scoped file logging")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print machine-readable JSON output")

	rootCmd.AddCommand(
		syncCmd,
		listCmd,
		deleteCmd,
		archiveCmd,
		restoreCmd,
		renameCmd,
		promoteCmd,
		starCmd,
		unstarCmd,
		mcpCmd,
		watchCmd,
		dotagentsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
