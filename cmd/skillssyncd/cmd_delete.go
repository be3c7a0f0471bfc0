package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deleteConfirmed bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Move a skill or subagent's canonical source to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("deleting record", zap.String("id", args[0]), zap.Bool("confirmed", deleteConfirmed))
		snap, err := eng.Delete(args[0], deleteConfirmed)
		if err != nil {
			logger.Warn("delete failed", zap.String("id", args[0]), zap.Error(err))
			return err
		}
		if asJSON {
			return printJSON(snap)
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteConfirmed, "yes", false, "Confirm the deletion")
}
