// Package daemon provides the import daemon that watches a directory of
// exported task files and keeps the durable collection store in step.
//
// The daemon:
// 1. Performs a full import of {id}.json task files on startup
// 2. Watches the directory for file changes
// 3. Upserts created/modified files and deletes removed ones
// 4. Handles graceful shutdown
//
// Because it writes to the durable store, every change it imports flows on
// through the sync bridge into the working set. This is the "external
// change" source in a running deployment.
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

// Config holds configuration for the daemon.
type Config struct {
	// DebounceInterval is how long to wait before processing file changes.
	// This batches rapid updates together.
	DebounceInterval time.Duration

	// Logger for daemon activity.
	Logger *log.Logger

	// OnImportComplete, when set, is called after each full import with
	// the result counts and elapsed time (dashboard broadcasts hook in
	// here).
	OnImportComplete func(imported, failed int, elapsed time.Duration)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 100 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates file watching and durable-store synchronization.
type Daemon struct {
	db        *db.DB
	importDir string
	config    *Config

	watcher       *fsnotify.Watcher
	changeQueue   map[string]time.Time // filepath -> timestamp
	changeQueueMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Daemon instance watching importDir. Use Start to begin
// watching and importing.
func New(database *db.DB, importDir string) (*Daemon, error) {
	return NewWithConfig(database, importDir, DefaultConfig())
}

// NewWithConfig creates a daemon with custom configuration.
func NewWithConfig(database *db.DB, importDir string, config *Config) (*Daemon, error) {
	if database == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if importDir == "" {
		return nil, fmt.Errorf("importDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		db:          database,
		importDir:   importDir,
		config:      config,
		watcher:     watcher,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start begins the daemon's operation: a full import, then watching for
// file changes. Blocks until ctx is cancelled or an error occurs.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting import daemon")

	if err := os.MkdirAll(d.importDir, 0755); err != nil {
		return fmt.Errorf("failed to create import directory: %w", err)
	}

	if _, _, err := d.ImportAll(); err != nil {
		return fmt.Errorf("initial import failed: %w", err)
	}

	if err := d.watcher.Add(d.importDir); err != nil {
		return fmt.Errorf("failed to watch import directory: %w", err)
	}

	d.config.Logger.Printf("Watching: %s", d.importDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processChangeQueue()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the daemon.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping import daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Import daemon stopped")
	return nil
}

// ImportAll reads every task file in the import directory and upserts it
// into the durable store. Individual file failures are logged but don't
// stop the import. Returns the number of imported and failed files.
func (d *Daemon) ImportAll() (imported, failed int, err error) {
	d.config.Logger.Printf("Importing task files from %s", d.importDir)
	start := time.Now()

	tasks, err := schema.ReadAllTaskFiles(d.importDir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read import directory: %w", err)
	}

	for _, task := range tasks {
		if err := d.db.UpsertTask(task); err != nil {
			d.config.Logger.Printf("Warning: failed to import task %s: %v", task.ID, err)
			failed++
			continue
		}
		imported++
	}

	d.config.Logger.Printf("Import complete: imported=%d failed=%d", imported, failed)
	if d.config.OnImportComplete != nil {
		d.config.OnImportComplete(imported, failed, time.Since(start))
	}
	return imported, failed, nil
}

// watchFileEvents monitors filesystem events and queues changes.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}

			// Only care about Create, Write, Remove, Rename
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if filepath.Ext(event.Name) != ".json" {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Name)
			d.queueChange(event.Name)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange adds a file to the change queue with debouncing.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue processes queued file changes with debouncing.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			d.processPendingChanges()
		}
	}
}

// processPendingChanges imports files that have been queued for long
// enough.
func (d *Daemon) processPendingChanges() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}

		d.config.Logger.Printf("Processing change: %s", path)
		if err := d.syncTaskFile(path); err != nil {
			d.config.Logger.Printf("Error importing %s: %v", path, err)
		}

		delete(d.changeQueue, path)
	}
}

// syncTaskFile imports a single task file, treating a missing file as a
// deletion of the task named by the filename.
func (d *Daemon) syncTaskFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		taskID := strings.TrimSuffix(filepath.Base(path), ".json")

		d.config.Logger.Printf("Deleting task: %s", taskID)
		return d.db.DeleteTask(taskID)
	}

	task, err := schema.ReadTaskFile(path)
	if err != nil {
		return fmt.Errorf("failed to read task file: %w", err)
	}

	return d.db.UpsertTask(task)
}
