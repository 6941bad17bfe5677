package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/plantrack/plantrack/internal/schema"
)

// UpsertActiveSession inserts or replaces the singleton session record.
func (db *DB) UpsertActiveSession(sess *schema.ActiveSession) error {
	return db.UpsertActiveSessionContext(context.Background(), sess)
}

// UpsertActiveSessionContext inserts or replaces the session with context
// support.
func (db *DB) UpsertActiveSessionContext(ctx context.Context, sess *schema.ActiveSession) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}

	query := `
	INSERT INTO active_session (id, user_id, username, token, last_login_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		username = excluded.username,
		token = excluded.token,
		last_login_at = excluded.last_login_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		sess.ID,
		sess.UserID,
		sess.Username,
		nullString(sess.Token),
		sess.LastLoginAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	db.notifySession()
	return nil
}

// GetActiveSession retrieves the current session record.
// Returns sql.ErrNoRows when nobody is signed in.
func (db *DB) GetActiveSession() (*schema.ActiveSession, error) {
	return db.GetActiveSessionContext(context.Background())
}

// GetActiveSessionContext retrieves the session with context support.
func (db *DB) GetActiveSessionContext(ctx context.Context) (*schema.ActiveSession, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, username, token, last_login_at FROM active_session WHERE id = ?`,
		schema.ActiveSessionID)

	var sess schema.ActiveSession
	var token sql.NullString
	var lastLogin string

	err := row.Scan(&sess.ID, &sess.UserID, &sess.Username, &token, &lastLogin)
	if err != nil {
		return nil, err
	}

	sess.Token = token.String
	if t, err := time.Parse(time.RFC3339, lastLogin); err == nil {
		sess.LastLoginAt = t
	}

	return &sess, nil
}

// ClearActiveSession removes the session record(s) entirely, not just
// blanking fields. Returns nil if no session exists (idempotent).
func (db *DB) ClearActiveSession() error {
	return db.ClearActiveSessionContext(context.Background())
}

// ClearActiveSessionContext removes the session with context support.
func (db *DB) ClearActiveSessionContext(ctx context.Context) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM active_session`)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		db.notifySession()
	}
	return nil
}
