package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	GroupID: "tasks",
	Short:   "Manage construction tasks",
	Long: `Create, list, update, and delete construction tasks.

Tasks created while signed in belong to the active account and are only
visible to it. Without a session, tasks are unowned demo-style records.`,
}

var taskAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a task at floor-plan coordinates",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		description, _ := cmd.Flags().GetString("description")
		iconStr, _ := cmd.Flags().GetString("icon")
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")

		icon := schema.IconID(iconStr)
		if !icon.Valid() {
			return fmt.Errorf("invalid icon %q", iconStr)
		}

		task := schema.NewTask(env.store.ActiveUserID(), args[0], description, icon, schema.Coordinates{X: x, Y: y})
		if err := task.Validate(); err != nil {
			return fmt.Errorf("invalid task: %w", err)
		}

		env.store.AddTask(*task)
		fmt.Printf("Created task %s (%s)\n", task.ID, task.Name)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible tasks",
	Long: `List the tasks in the working set.

Only tasks visible to the current session are shown: the active
account's tasks when signed in, unowned tasks otherwise. Use --all to
list every task in the database regardless of owner.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		var tasks []schema.Task
		all, _ := cmd.Flags().GetBool("all")
		if all {
			tasks, err = env.db.ListTasks(db.ListTasksFilter{})
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
		} else {
			tasks = env.store.Tasks()
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks")
			return nil
		}

		for _, t := range tasks {
			done := 0
			for _, item := range t.Checklist {
				if item.Status.ID == schema.ChecklistDone {
					done++
				}
			}
			owner := t.UserID
			if owner == "" {
				owner = "-"
			}
			fmt.Printf("%-36s  %-12s  %-10s  (%.0f,%.0f)  %d/%d  %-12s  %s\n",
				t.ID, t.Status, t.IconID, t.Coordinates.X, t.Coordinates.Y, done, len(t.Checklist), owner, t.Name)
		}
		fmt.Printf("\n%d tasks\n", len(tasks))
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task with its checklist",
	Args:  cobra.ExactArgs(1),
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

		fmt.Printf("Task: %s\n", t.Name)
		fmt.Printf("ID: %s\n", t.ID)
		if t.UserID != "" {
			fmt.Printf("Owner: %s\n", t.UserID)
		}
		fmt.Printf("Status: %s\n", t.Status)
		fmt.Printf("Icon: %s\n", t.IconID)
		fmt.Printf("Position: (%.0f, %.0f)\n", t.Coordinates.X, t.Coordinates.Y)
		fmt.Printf("Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
		if t.Description != "" {
			fmt.Printf("Description: %s\n", t.Description)
		}
		if len(t.Checklist) > 0 {
			fmt.Printf("Checklist:\n")
			for _, item := range t.Checklist {
				fmt.Printf("  [%s] %s (%s)\n", item.Status.Name, item.Name, item.ID)
			}
		}
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Set a task's status",
	Long:  `Set a task's status to one of: awaiting, pending, in-progress, completed.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		status := schema.TaskStatus(args[1])
		if !status.Valid() {
			return fmt.Errorf("invalid status %q", args[1])
		}
		if _, ok := env.store.Task(args[0]); !ok {
			return fmt.Errorf("task %s not found", args[0])
		}

		env.store.UpdateTaskStatus(args[0], status)
		fmt.Printf("Task %s is now %s\n", args[0], status)
		return nil
	},
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> <x> <y>",
	Short: "Move a task to new floor-plan coordinates",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		x, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid x coordinate %q", args[1])
		}
		y, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid y coordinate %q", args[2])
		}

		t, ok := env.store.Task(args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}

		t.Coordinates = schema.Coordinates{X: x, Y: y}
		t.Touch()
		env.store.UpsertTask(t)
		fmt.Printf("Moved task %s to (%.0f, %.0f)\n", t.ID, x, y)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		if _, ok := env.store.Task(args[0]); !ok {
			// Not visible in the working set; fall back to a direct
			// durable delete so other accounts' tasks can be removed.
			if err := env.db.DeleteTask(args[0]); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Printf("Deleted task %s\n", args[0])
			return nil
		}

		env.store.RemoveTask(args[0])
		if err := env.db.DeleteTask(args[0]); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		fmt.Printf("Deleted task %s\n", args[0])
		return nil
	},
}

var taskPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all tasks with a given status",
	Long: `Delete every task matching a status, in bulk.

Defaults to the active account's tasks; --all-users prunes matching
tasks for every owner.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		statusStr, _ := cmd.Flags().GetString("status")
		allUsers, _ := cmd.Flags().GetBool("all-users")

		status := schema.TaskStatus(statusStr)
		if !status.Valid() {
			return fmt.Errorf("invalid status %q", statusStr)
		}

		filter := db.ListTasksFilter{Status: status}
		if !allUsers {
			filter.UserID = env.store.ActiveUserID()
			if filter.UserID == "" {
				return fmt.Errorf("no active session; use --all-users to prune across owners")
			}
		}

		n, err := env.db.DeleteTasksWhere(filter)
		if err != nil {
			return fmt.Errorf("failed to prune tasks: %w", err)
		}
		fmt.Printf("Pruned %d %s tasks\n", n, status)
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringP("description", "d", "", "Task description")
	taskAddCmd.Flags().String("icon", string(schema.IconOther), "Trade icon (lampwork, electrical, plumbing, ...)")
	taskAddCmd.Flags().Float64("x", 0, "X coordinate on the floor plan")
	taskAddCmd.Flags().Float64("y", 0, "Y coordinate on the floor plan")
	taskListCmd.Flags().Bool("all", false, "List every task regardless of owner")
	taskPruneCmd.Flags().String("status", string(schema.StatusCompleted), "Status of tasks to delete")
	taskPruneCmd.Flags().Bool("all-users", false, "Prune matching tasks for every owner")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskPruneCmd)
	rootCmd.AddCommand(taskCmd)
}
