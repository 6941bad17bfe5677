package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/plantrack/plantrack/internal/schema"
)

// UpsertTask inserts or updates a task. The record is validated first and
// rejected with an error on schema violations. The checklist is stored as
// a JSON array string.
func (db *DB) UpsertTask(task *schema.Task) error {
	return db.UpsertTaskContext(context.Background(), task)
}

// UpsertTaskContext inserts or updates a task with context support.
func (db *DB) UpsertTaskContext(ctx context.Context, task *schema.Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	checklistJSON, err := json.Marshal(task.Checklist)
	if err != nil {
		return fmt.Errorf("failed to marshal checklist: %w", err)
	}

	query := `
	INSERT INTO tasks (
		id, user_id, name, description, status, icon_id,
		pos_x, pos_y, created_at, updated_at, checklist
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		user_id = excluded.user_id,
		name = excluded.name,
		description = excluded.description,
		status = excluded.status,
		icon_id = excluded.icon_id,
		pos_x = excluded.pos_x,
		pos_y = excluded.pos_y,
		updated_at = excluded.updated_at,
		checklist = excluded.checklist
	`

	_, err = db.conn.ExecContext(ctx, query,
		task.ID,
		nullString(task.UserID),
		task.Name,
		task.Description,
		string(task.Status),
		string(task.IconID),
		task.Coordinates.X,
		task.Coordinates.Y,
		task.CreatedAt.Format(time.RFC3339),
		task.UpdatedAt.Format(time.RFC3339),
		string(checklistJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	db.notifyTasks()
	return nil
}

// DeleteTask removes a task. Returns nil if the task doesn't exist
// (idempotent).
func (db *DB) DeleteTask(taskID string) error {
	return db.DeleteTaskContext(context.Background(), taskID)
}

// DeleteTaskContext removes a task with context support.
func (db *DB) DeleteTaskContext(ctx context.Context, taskID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		db.notifyTasks()
	}
	return nil
}

// DeleteTasksWhere removes every task matching the filter (limit and
// offset are ignored) and returns the number of rows removed. An empty
// filter is rejected rather than truncating the collection.
func (db *DB) DeleteTasksWhere(filter ListTasksFilter) (int, error) {
	return db.DeleteTasksWhereContext(context.Background(), filter)
}

// DeleteTasksWhereContext removes matching tasks with context support.
func (db *DB) DeleteTasksWhereContext(ctx context.Context, filter ListTasksFilter) (int, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) == 0 {
		return 0, fmt.Errorf("refusing to delete tasks without a filter")
	}

	query := "DELETE FROM tasks WHERE " + strings.Join(conditions, " AND ")
	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted tasks: %w", err)
	}
	if n > 0 {
		db.notifyTasks()
	}
	return int(n), nil
}

// GetTaskCount returns the total number of tasks.
func (db *DB) GetTaskCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get task count: %w", err)
	}
	return count, nil
}

// GetTaskByID retrieves a single task by id.
// Returns sql.ErrNoRows if the task is not found.
func (db *DB) GetTaskByID(id string) (*schema.Task, error) {
	return db.GetTaskByIDContext(context.Background(), id)
}

// GetTaskByIDContext retrieves a single task with context support.
func (db *DB) GetTaskByIDContext(ctx context.Context, id string) (*schema.Task, error) {
	row := db.conn.QueryRowContext(ctx, taskSelect+` WHERE id = ?`, id)
	return scanTask(row)
}

// ListTasksFilter configures the ListTasks query.
type ListTasksFilter struct {
	// UserID filters by owning user ("" = all owners).
	UserID string
	// Status filters by task status ("" = all statuses).
	Status schema.TaskStatus
	// Limit restricts the number of results (0 = no limit).
	Limit int
	// Offset skips the first N results (for pagination).
	Offset int
}

const taskSelect = `
	SELECT id, user_id, name, description, status, icon_id,
	       pos_x, pos_y, created_at, updated_at, checklist
	FROM tasks`

// ListTasks retrieves tasks matching the filter, ordered by created_at
// then id so results are stable.
func (db *DB) ListTasks(filter ListTasksFilter) ([]schema.Task, error) {
	return db.ListTasksContext(context.Background(), filter)
}

// ListTasksContext retrieves tasks with context support.
func (db *DB) ListTasksContext(ctx context.Context, filter ListTasksFilter) ([]schema.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := taskSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// scanTasks scans multiple tasks from query results.
func scanTasks(rows *sql.Rows) ([]schema.Task, error) {
	tasks := []schema.Task{}

	for rows.Next() {
		task, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// scanTask scans a single task from a QueryRow result.
func scanTask(row *sql.Row) (*schema.Task, error) {
	return scanTaskRow(row.Scan)
}

func scanTaskRow(scan func(...interface{}) error) (*schema.Task, error) {
	var task schema.Task
	var userID sql.NullString
	var status, iconID string
	var createdAt, updatedAt string
	var checklistJSON string

	err := scan(
		&task.ID,
		&userID,
		&task.Name,
		&task.Description,
		&status,
		&iconID,
		&task.Coordinates.X,
		&task.Coordinates.Y,
		&createdAt,
		&updatedAt,
		&checklistJSON,
	)
	if err != nil {
		return nil, err
	}

	task.UserID = userID.String
	task.Status = schema.TaskStatus(status)
	task.IconID = schema.IconID(iconID)

	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		task.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		task.UpdatedAt = t
	}

	if checklistJSON != "" && checklistJSON != "null" {
		if err := json.Unmarshal([]byte(checklistJSON), &task.Checklist); err != nil {
			return nil, fmt.Errorf("failed to unmarshal checklist: %w", err)
		}
	} else {
		task.Checklist = []schema.ChecklistItem{}
	}

	return &task, nil
}

// nullString converts an optional string to a nullable SQL value.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
