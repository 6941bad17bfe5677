// Command plantrack is the construction-task tracker CLI.
//
// It manages a durable SQLite collection store, an in-memory working set
// kept in step by a sync bridge, a file import daemon, and an optional
// WebSocket dashboard.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/bridge"
	"github.com/plantrack/plantrack/internal/config"
	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/logging"
	"github.com/plantrack/plantrack/internal/store"
)

var (
	flagConfig string
	flagDBPath string
)

var rootCmd = &cobra.Command{
	Use:   "plantrack",
	Short: "Construction task tracker with durable sync",
	Long: `Plantrack tracks construction tasks pinned to floor-plan coordinates.

Tasks live in an in-memory working set for fast access and are mirrored
to a local SQLite database by a sync bridge. An import daemon can watch
a directory of {id}.json task files and feed external changes in.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.plantrack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (overrides config)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "account", Title: "Account Commands:"},
		&cobra.Group{ID: "data", Title: "Data Commands:"},
	)
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if flagDBPath != "" {
		cfg.Database.Path = flagDBPath
	}
	return cfg, nil
}

// appEnv bundles the opened stores and running bridge for one command.
type appEnv struct {
	cfg    *config.Config
	db     *db.DB
	store  *store.Store
	bridge *bridge.Bridge
	logger *log.Logger
	closer func()
}

// openEnv opens the database, builds the working set, and starts the sync
// bridge so store mutations flow through to the durable side. The caller
// must invoke closer when done.
func openEnv() (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logWriter := logging.Writer(cfg.Log)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		logWriter.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	database.SetLogger(logging.New(logWriter, "db"))

	if err := database.InitSchema(); err != nil {
		database.Close()
		logWriter.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ws := store.New()
	br, err := bridge.New(ws, database, logging.New(logWriter, "bridge"))
	if err != nil {
		database.Close()
		logWriter.Close()
		return nil, err
	}
	br.Start()

	return &appEnv{
		cfg:    cfg,
		db:     database,
		store:  ws,
		bridge: br,
		logger: logging.New(logWriter, "plantrack"),
		closer: func() {
			br.Stop()
			database.Close()
			logWriter.Close()
		},
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
