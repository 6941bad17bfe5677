// Package db provides the durable collection store for plantrack: an
// embedded SQLite database (ncruces/go-sqlite3, WAL mode) holding three
// schema-validated collections: tasks, users, and the active session.
//
// The store survives reloads and is the source of truth after restart.
// Every write is validated against internal/schema before it is accepted;
// writes that violate the schema fail fast rather than corrupting storage.
//
// Each collection also exposes a live change stream: after every committed
// mutation the full current collection is re-queried and delivered
// synchronously to watchers, and the current set is replayed immediately on
// subscribe. This mirrors the query streams the sync bridge consumes.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/plantrack/plantrack/internal/schema"
)

// DB wraps the SQLite connection with collection-level operations and
// change streams.
type DB struct {
	conn   *sql.DB
	path   string
	logger *log.Logger

	mu              sync.Mutex
	taskSubMu       sync.Mutex
	userSubMu       sync.Mutex
	sessionSubMu    sync.Mutex
	taskWatchers    map[int]func([]schema.Task)
	userWatchers    map[int]func([]schema.User)
	sessionWatchers map[int]func(*schema.ActiveSession)
	nextWatcherID   int
}

// Open creates a database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent reads.
// If it doesn't exist it is created; call InitSchema before first use.
// The caller MUST call Close when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn:            conn,
		path:            path,
		logger:          log.New(os.Stderr, "[db] ", log.LstdFlags),
		taskWatchers:    make(map[int]func([]schema.Task)),
		userWatchers:    make(map[int]func([]schema.User)),
		sessionWatchers: make(map[int]func(*schema.ActiveSession)),
	}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// SetLogger replaces the logger used for change-stream diagnostics.
func (db *DB) SetLogger(logger *log.Logger) {
	if logger != nil {
		db.logger = logger
	}
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection after a WAL checkpoint.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the collections and indexes if they don't exist.
// Idempotent - safe to call multiple times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'awaiting',
		icon_id TEXT NOT NULL,
		pos_x REAL NOT NULL DEFAULT 0,
		pos_y REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		checklist TEXT NOT NULL DEFAULT '[]'  -- JSON array
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		token TEXT
	);

	CREATE TABLE IF NOT EXISTS active_session (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		username TEXT NOT NULL,
		token TEXT,
		last_login_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

	CREATE INDEX IF NOT EXISTS idx_session_user ON active_session(user_id);
	CREATE INDEX IF NOT EXISTS idx_session_username ON active_session(username);
	`

	if _, err := db.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// WatchTasks registers fn on the task change stream and immediately
// replays the current collection to it. The returned func cancels the
// watch.
func (db *DB) WatchTasks(fn func([]schema.Task)) func() {
	db.mu.Lock()
	id := db.nextWatcherID
	db.nextWatcherID++
	db.taskWatchers[id] = fn
	db.mu.Unlock()

	tasks, err := db.ListTasks(ListTasksFilter{})
	if err != nil {
		db.logger.Printf("task watch replay failed: %v", err)
	} else {
		db.taskSubMu.Lock()
		fn(tasks)
		db.taskSubMu.Unlock()
	}

	return func() {
		db.mu.Lock()
		delete(db.taskWatchers, id)
		db.mu.Unlock()
	}
}

// WatchUsers registers fn on the user change stream with replay semantics
// matching WatchTasks.
func (db *DB) WatchUsers(fn func([]schema.User)) func() {
	db.mu.Lock()
	id := db.nextWatcherID
	db.nextWatcherID++
	db.userWatchers[id] = fn
	db.mu.Unlock()

	users, err := db.ListUsers()
	if err != nil {
		db.logger.Printf("user watch replay failed: %v", err)
	} else {
		db.userSubMu.Lock()
		fn(users)
		db.userSubMu.Unlock()
	}

	return func() {
		db.mu.Lock()
		delete(db.userWatchers, id)
		db.mu.Unlock()
	}
}

// WatchActiveSession registers fn on the session change stream with replay
// semantics matching WatchTasks. fn receives nil when no session record
// exists.
func (db *DB) WatchActiveSession(fn func(*schema.ActiveSession)) func() {
	db.mu.Lock()
	id := db.nextWatcherID
	db.nextWatcherID++
	db.sessionWatchers[id] = fn
	db.mu.Unlock()

	sess, err := db.GetActiveSession()
	if err != nil && err != sql.ErrNoRows {
		db.logger.Printf("session watch replay failed: %v", err)
	} else {
		db.sessionSubMu.Lock()
		fn(sess)
		db.sessionSubMu.Unlock()
	}

	return func() {
		db.mu.Lock()
		delete(db.sessionWatchers, id)
		db.mu.Unlock()
	}
}

// notifyTasks re-queries the task collection and delivers it to watchers.
func (db *DB) notifyTasks() {
	db.mu.Lock()
	subs := make([]func([]schema.Task), 0, len(db.taskWatchers))
	for _, fn := range db.taskWatchers {
		subs = append(subs, fn)
	}
	db.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	tasks, err := db.ListTasks(ListTasksFilter{})
	if err != nil {
		db.logger.Printf("task change stream query failed: %v", err)
		return
	}

	db.taskSubMu.Lock()
	defer db.taskSubMu.Unlock()
	for _, fn := range subs {
		fn(tasks)
	}
}

// notifyUsers re-queries the user collection and delivers it to watchers.
func (db *DB) notifyUsers() {
	db.mu.Lock()
	subs := make([]func([]schema.User), 0, len(db.userWatchers))
	for _, fn := range db.userWatchers {
		subs = append(subs, fn)
	}
	db.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	users, err := db.ListUsers()
	if err != nil {
		db.logger.Printf("user change stream query failed: %v", err)
		return
	}

	db.userSubMu.Lock()
	defer db.userSubMu.Unlock()
	for _, fn := range subs {
		fn(users)
	}
}

// notifySession re-queries the session record and delivers it to watchers.
func (db *DB) notifySession() {
	db.mu.Lock()
	subs := make([]func(*schema.ActiveSession), 0, len(db.sessionWatchers))
	for _, fn := range db.sessionWatchers {
		subs = append(subs, fn)
	}
	db.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	sess, err := db.GetActiveSession()
	if err != nil && err != sql.ErrNoRows {
		db.logger.Printf("session change stream query failed: %v", err)
		return
	}

	db.sessionSubMu.Lock()
	defer db.sessionSubMu.Unlock()
	for _, fn := range subs {
		fn(sess)
	}
}
