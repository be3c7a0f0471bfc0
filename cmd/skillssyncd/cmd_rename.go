package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renameConfirmed bool
var promoteConfirmed bool

var renameCmd = &cobra.Command{
	Use:   "rename <id> <new-title>",
	Short: "Normalize a new title to a key, move the skill, and rewrite its front-matter title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("renaming skill", zap.String("id", args[0]), zap.String("new_title", args[1]))
		snap, err := eng.Rename(args[0], args[1], renameConfirmed)
		if err != nil {
			logger.Warn("rename failed", zap.String("id", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("renamed %s\n", args[0])
		return nil
	},
}

var promoteCmd = &cobra.Command{
	Use:   "promote <id>",
	Short: "Promote a project-scope skill to the preferred global location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("promoting skill to global scope", zap.String("id", args[0]))
		snap, err := eng.MakeGlobal(args[0], promoteConfirmed)
		if err != nil {
			logger.Warn("promote failed", zap.String("id", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("promoted %s\n", args[0])
		return nil
	},
}

func init() {
	renameCmd.Flags().BoolVar(&renameConfirmed, "yes", false, "Confirm the rename")
	promoteCmd.Flags().BoolVar(&promoteConfirmed, "yes", false, "Confirm the promotion")
}
