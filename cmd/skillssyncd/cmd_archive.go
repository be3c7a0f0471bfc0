package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var archiveConfirmed bool
var restoreConfirmed bool

var archiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Move a skill's canonical source and managed links into an archive bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("archiving skill", zap.String("id", args[0]))
		snap, err := eng.Archive(args[0], archiveConfirmed)
		if err != nil {
			logger.Warn("archive failed", zap.String("id", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("archived %s\n", args[0])
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <bundle>",
	Short: "Restore an archived skill bundle to its preferred global location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("restoring bundle", zap.String("bundle", args[0]))
		snap, err := eng.Restore(args[0], restoreConfirmed)
		if err != nil {
			logger.Warn("restore failed", zap.String("bundle", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("restored %s\n", args[0])
		return nil
	},
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveConfirmed, "yes", false, "Confirm the archive")
	restoreCmd.Flags().BoolVar(&restoreConfirmed, "yes", false, "Confirm the restore")
}
