package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Manage a task's checklist",
}

var checkAddCmd = &cobra.Command{
	Use:   "add <task-id> <name>",
	Short: "Add a checklist item to a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		t, ok := env.store.Task(args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}

		description, _ := cmd.Flags().GetString("description")
		item := schema.NewChecklistItem(args[1], description, t.IconID)
		env.store.AddChecklistItem(t.ID, item)
		fmt.Printf("Added checklist item %s to task %s\n", item.ID, t.ID)
		return nil
	},
}

var checkStatusCmd = &cobra.Command{
	Use:   "status <task-id> <item-id> <status>",
	Short: "Set a checklist item's status",
	Long: `Set a checklist item's status to one of: not-started, in-progress,
blocked, final-check, awaiting, done. The display name is derived from
the status id.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		status := schema.ChecklistStatus(args[2])
		if !status.Valid() {
			return fmt.Errorf("invalid checklist status %q", args[2])
		}

		t, ok := env.store.Task(args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}
		if t.ChecklistItemByID(args[1]) == nil {
			return fmt.Errorf("checklist item %s not found on task %s", args[1], args[0])
		}

		env.store.UpdateChecklistItemStatus(args[0], args[1], status)
		fmt.Printf("Checklist item %s is now %s\n", args[1], status.DisplayName())
		return nil
	},
}

var checkDeleteCmd = &cobra.Command{
	Use:   "delete <task-id> <item-id>",
	Short: "Remove a checklist item from a task",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		t, ok := env.store.Task(args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}
		if t.ChecklistItemByID(args[1]) == nil {
			return fmt.Errorf("checklist item %s not found on task %s", args[1], args[0])
		}

		env.store.DeleteChecklistItem(args[0], args[1])
		fmt.Printf("Removed checklist item %s from task %s\n", args[1], args[0])
		return nil
	},
}

func init() {
	checkAddCmd.Flags().StringP("description", "d", "", "Item description")

	checkCmd.AddCommand(checkAddCmd)
	checkCmd.AddCommand(checkStatusCmd)
	checkCmd.AddCommand(checkDeleteCmd)
	taskCmd.AddCommand(checkCmd)
}
