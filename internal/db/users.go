package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/plantrack/plantrack/internal/schema"
)

// InsertUser inserts a user only if no record with the same id exists.
// Existing records are left untouched, so a token refreshed elsewhere is
// never clobbered by a stale copy. Returns true when a row was inserted.
func (db *DB) InsertUser(user *schema.User) (bool, error) {
	return db.InsertUserContext(context.Background(), user)
}

// InsertUserContext inserts a user with context support.
func (db *DB) InsertUserContext(ctx context.Context, user *schema.User) (bool, error) {
	if err := user.Validate(); err != nil {
		return false, fmt.Errorf("invalid user: %w", err)
	}

	query := `
	INSERT INTO users (id, username, token)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	`

	res, err := db.conn.ExecContext(ctx, query, user.ID, user.Username, nullString(user.Token))
	if err != nil {
		return false, fmt.Errorf("failed to insert user %s: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if n > 0 {
		db.notifyUsers()
	}
	return n > 0, nil
}

// UpsertUser inserts or replaces a user record.
func (db *DB) UpsertUser(user *schema.User) error {
	return db.UpsertUserContext(context.Background(), user)
}

// UpsertUserContext inserts or replaces a user with context support.
func (db *DB) UpsertUserContext(ctx context.Context, user *schema.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("invalid user: %w", err)
	}

	query := `
	INSERT INTO users (id, username, token)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		username = excluded.username,
		token = excluded.token
	`

	if _, err := db.conn.ExecContext(ctx, query, user.ID, user.Username, nullString(user.Token)); err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", user.ID, err)
	}

	db.notifyUsers()
	return nil
}

// DeleteUser removes a user. Returns nil if the user doesn't exist
// (idempotent).
func (db *DB) DeleteUser(userID string) error {
	return db.DeleteUserContext(context.Background(), userID)
}

// DeleteUserContext removes a user with context support.
func (db *DB) DeleteUserContext(ctx context.Context, userID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", userID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		db.notifyUsers()
	}
	return nil
}

// GetUserByID retrieves a single user by id.
// Returns sql.ErrNoRows if the user is not found.
func (db *DB) GetUserByID(id string) (*schema.User, error) {
	return db.GetUserByIDContext(context.Background(), id)
}

// GetUserByIDContext retrieves a single user with context support.
func (db *DB) GetUserByIDContext(ctx context.Context, id string) (*schema.User, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT id, username, token FROM users WHERE id = ?`, id)
	return scanUser(row.Scan)
}

// GetUserByUsername retrieves a single user by username.
// Returns sql.ErrNoRows if the user is not found.
func (db *DB) GetUserByUsername(username string) (*schema.User, error) {
	row := db.conn.QueryRow(`SELECT id, username, token FROM users WHERE username = ?`, username)
	return scanUser(row.Scan)
}

// ListUsers retrieves all users ordered by username.
func (db *DB) ListUsers() ([]schema.User, error) {
	return db.ListUsersContext(context.Background())
}

// ListUsersContext retrieves all users with context support.
func (db *DB) ListUsersContext(ctx context.Context) ([]schema.User, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, username, token FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []schema.User{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// GetUserCount returns the total number of registered users.
func (db *DB) GetUserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get user count: %w", err)
	}
	return count, nil
}

func scanUser(scan func(...interface{}) error) (*schema.User, error) {
	var user schema.User
	var token sql.NullString

	if err := scan(&user.ID, &user.Username, &token); err != nil {
		return nil, err
	}

	user.Token = token.String
	return &user, nil
}
