package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/db"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "data",
	Short:   "Show database status",
	Long: `Display the current status of the plantrack database.

Shows:
  - Database location and size
  - Number of tasks and registered users
  - Active session, if anyone is signed in`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		info, err := os.Stat(cfg.Database.Path)
		if os.IsNotExist(err) {
			fmt.Println("Database not initialized")
			fmt.Println("Run 'plantrack seed' or 'plantrack sync' to create it")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check database: %w", err)
		}

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		taskCount, err := database.GetTaskCount()
		if err != nil {
			return fmt.Errorf("failed to get task count: %w", err)
		}
		userCount, err := database.GetUserCount()
		if err != nil {
			return fmt.Errorf("failed to get user count: %w", err)
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\nPlantrack Database Status\n\n")
		fmt.Printf("Location: %s\n", cfg.Database.Path)
		fmt.Printf("Size: %s\n", sizeStr)
		fmt.Printf("Tasks: %d\n", taskCount)
		fmt.Printf("Users: %d\n", userCount)
		fmt.Printf("Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

		sess, err := database.GetActiveSession()
		switch {
		case errors.Is(err, sql.ErrNoRows):
			fmt.Printf("Session: signed out\n")
		case err != nil:
			return fmt.Errorf("failed to get session: %w", err)
		default:
			fmt.Printf("Session: %s (since %s)\n", sess.Username, sess.LastLoginAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
