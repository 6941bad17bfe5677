package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:     "seed",
	GroupID: "data",
	Short:   "Populate an empty database with demo construction tasks",
	Long: `Insert the five demo construction tasks into the database.

Seeding is skipped when the database already contains tasks, so it is
safe to run on an existing installation. The demo tasks carry no owner
and are visible whenever nobody is signed in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer database.Close()

		if err := database.InitSchema(); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		seeded, err := seed.Apply(database)
		if err != nil {
			return err
		}
		if seeded == 0 {
			fmt.Println("Database already has tasks, nothing seeded")
			return nil
		}
		fmt.Printf("Seeded %d demo tasks\n", seeded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
