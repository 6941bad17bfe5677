package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plantrack/plantrack/internal/daemon"
	"github.com/plantrack/plantrack/internal/dashboard"
	"github.com/plantrack/plantrack/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	GroupID: "data",
	Short:   "Run the import daemon and optional dashboard (foreground)",
	Long: `Run plantrack's long-lived services in the foreground.

Starts the file import daemon watching the configured import directory
for {id}.json task files, and, when enabled, the WebSocket dashboard
broadcasting task and session changes.

Example usage:
  plantrack serve                     # daemon only, per config
  plantrack serve --dashboard         # daemon plus dashboard
  plantrack serve --port 9000         # dashboard on custom port

Connect a WebSocket client to ws://localhost:<port>/ws for live updates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv()
		if err != nil {
			return err
		}
		defer env.closer()

		enableDashboard, _ := cmd.Flags().GetBool("dashboard")
		port, _ := cmd.Flags().GetInt("port")

		var handler *dashboard.Handler
		if enableDashboard || env.cfg.Dashboard.Enabled {
			if port == 0 {
				port = env.cfg.Dashboard.Port
			}
			server := dashboard.NewServer(&dashboard.Config{
				Port:   port,
				Logger: logging.New(env.logger.Writer(), "dashboard"),
			})
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}
			defer server.Stop()

			handler = dashboard.NewHandler(server, logging.New(env.logger.Writer(), "dashboard"))
			handler.Attach(env.db)
			defer handler.Detach()

			fmt.Printf("Dashboard server started on http://localhost:%d\n", port)
			fmt.Printf("WebSocket endpoint: ws://localhost:%d/ws\n", port)
		}

		if !env.cfg.Import.Enabled {
			fmt.Println("Import daemon disabled in config; serving dashboard only")
			fmt.Println("Press Ctrl+C to stop...")
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()
			return nil
		}

		daemonCfg := &daemon.Config{
			DebounceInterval: time.Duration(env.cfg.Import.DebounceMS) * time.Millisecond,
			Logger:           logging.New(env.logger.Writer(), "daemon"),
		}
		if handler != nil {
			daemonCfg.OnImportComplete = handler.OnImportComplete
		}
		d, err := daemon.NewWithConfig(env.db, env.cfg.Import.Dir, daemonCfg)
		if err != nil {
			return fmt.Errorf("failed to create import daemon: %w", err)
		}

		fmt.Printf("Watching %s for task files\n", env.cfg.Import.Dir)
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			return fmt.Errorf("daemon stopped with error: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("dashboard", false, "Enable the WebSocket dashboard")
	serveCmd.Flags().IntP("port", "p", 0, "Dashboard port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
