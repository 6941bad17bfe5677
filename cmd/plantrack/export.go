package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "data",
	Short:   "Write every task to the import directory as {id}.json files",
	Long: `Export all tasks from the database to individual JSON files.

Each task is written to <dir>/<task-id>.json in the same format the
import daemon reads, so an exported directory round-trips cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Import.Dir
		}

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		tasks, err := database.ListTasks(db.ListTasksFilter{})
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		for i := range tasks {
			if err := schema.WriteTaskFile(dir, &tasks[i]); err != nil {
				return fmt.Errorf("failed to write %s: %w", tasks[i].Filename(), err)
			}
		}

		fmt.Printf("Exported %d tasks to %s\n", len(tasks), dir)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "Export directory (default: import dir from config)")
	rootCmd.AddCommand(exportCmd)
}
