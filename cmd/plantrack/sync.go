package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/daemon"
	"github.com/plantrack/plantrack/internal/logging"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "data",
	Short:   "Full import from task files to the database",
	Long: `Import every {id}.json task file in the import directory into the
database in one pass.

This performs a full import:
  1. Reads all tasks/*.json files
  2. Validates and upserts each into the database
  3. Reports imported and failed counts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = env.cfg.Import.Dir
		}

		d, err := daemon.NewWithConfig(env.db, dir, &daemon.Config{
			Logger: logging.New(env.logger.Writer(), "daemon"),
		})
		if err != nil {
			return err
		}
		defer d.Stop()

		fmt.Printf("Importing from %s...\n", dir)
		start := time.Now()

		imported, failed, err := d.ImportAll()
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		elapsed := time.Since(start)
		total, _ := env.db.GetTaskCount()

		fmt.Printf("Import complete in %v\n", elapsed.Round(time.Millisecond))
		fmt.Printf("   Imported: %d\n", imported)
		fmt.Printf("   Failed: %d\n", failed)
		fmt.Printf("   Tasks in database: %d\n", total)
		return nil
	},
}

func init() {
	syncCmd.Flags().String("dir", "", "Import directory (default from config)")
	rootCmd.AddCommand(syncCmd)
}
