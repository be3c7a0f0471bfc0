package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var starCmd = &cobra.Command{
	Use:   "star <id>",
	Short: "Mark a skill as starred",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		starred, err := eng.SetSkillStarred(args[0], true)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(starred)
		}
		fmt.Printf("starred %s\n", args[0])
		return nil
	},
}

var unstarCmd = &cobra.Command{
	Use:   "unstar <id>",
	Short: "Remove a skill's starred status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		starred, err := eng.SetSkillStarred(args[0], false)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(starred)
		}
		fmt.Printf("unstarred %s\n", args[0])
		return nil
	},
}
