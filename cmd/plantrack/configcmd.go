package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "data",
	Short:   "Manage plantrack configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.GlobalConfigPath()
		if flagConfig != "" {
			path = flagConfig
		}

		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}

		if err := config.WriteDefault(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Database: %s\n", cfg.Database.Path)
		fmt.Printf("Import dir: %s (enabled=%v, debounce=%dms)\n", cfg.Import.Dir, cfg.Import.Enabled, cfg.Import.DebounceMS)
		fmt.Printf("Dashboard: port %d (enabled=%v)\n", cfg.Dashboard.Port, cfg.Dashboard.Enabled)
		if cfg.Log.File != "" {
			fmt.Printf("Log file: %s\n", cfg.Log.File)
		} else {
			fmt.Println("Log: stderr")
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
