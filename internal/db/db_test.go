package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/plantrack/plantrack/internal/schema"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	return database
}

func testTask(userID, name string) *schema.Task {
	return schema.NewTask(userID, name, "Test task", schema.IconLampwork, schema.Coordinates{X: 10, Y: 20})
}

func TestInitSchemaIdempotent(t *testing.T) {
	database := setupTestDB(t)
	if err := database.InitSchema(); err != nil {
		t.Fatalf("second InitSchema failed: %v", err)
	}
}

func TestUpsertAndGetTask(t *testing.T) {
	database := setupTestDB(t)

	task := testTask("u1", "Foundation Work")
	task.Checklist = append(task.Checklist, schema.NewChecklistItem("Install rebar", "Grade 60", schema.IconMasonry))

	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	got, err := database.GetTaskByID(task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}

	if got.Name != task.Name || got.UserID != "u1" {
		t.Errorf("fields did not survive: %+v", got)
	}
	if got.Coordinates.X != 10 || got.Coordinates.Y != 20 {
		t.Errorf("coordinates did not survive: %+v", got.Coordinates)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) || !got.UpdatedAt.Equal(task.UpdatedAt) {
		t.Error("timestamps did not survive")
	}
	if len(got.Checklist) != 2 {
		t.Fatalf("expected 2 checklist items, got %d", len(got.Checklist))
	}
	if got.Checklist[1].Name != "Install rebar" {
		t.Errorf("checklist order not preserved: %+v", got.Checklist)
	}
}

func TestUpsertTaskReplacesWholesale(t *testing.T) {
	database := setupTestDB(t)

	task := testTask("", "Framing")
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	task.Status = schema.StatusCompleted
	task.Checklist = nil
	task.Touch()
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("second UpsertTask failed: %v", err)
	}

	got, err := database.GetTaskByID(task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID failed: %v", err)
	}
	if got.Status != schema.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if len(got.Checklist) != 0 {
		t.Errorf("checklist should be replaced wholesale, got %d items", len(got.Checklist))
	}

	count, _ := database.GetTaskCount()
	if count != 1 {
		t.Errorf("expected 1 task, got %d", count)
	}
}

func TestUpsertTaskRejectsInvalid(t *testing.T) {
	database := setupTestDB(t)

	task := testTask("", "Bad")
	task.Status = "paused"

	if err := database.UpsertTask(task); err == nil {
		t.Fatal("expected validation error")
	}

	count, _ := database.GetTaskCount()
	if count != 0 {
		t.Errorf("invalid task should not be stored, count=%d", count)
	}
}

func TestGetTaskByIDMissing(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.GetTaskByID("nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestListTasksFilters(t *testing.T) {
	database := setupTestDB(t)

	a := testTask("u1", "Mine")
	b := testTask("u2", "Theirs")
	b.Status = schema.StatusCompleted
	c := testTask("", "Demo")

	for _, task := range []*schema.Task{a, b, c} {
		if err := database.UpsertTask(task); err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}
	}

	all, err := database.ListTasks(ListTasksFilter{})
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}

	mine, err := database.ListTasks(ListTasksFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListTasks by user failed: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Errorf("user filter wrong: %+v", mine)
	}

	completed, err := database.ListTasks(ListTasksFilter{Status: schema.StatusCompleted})
	if err != nil {
		t.Fatalf("ListTasks by status failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != b.ID {
		t.Errorf("status filter wrong: %+v", completed)
	}
}

func TestDeleteTaskIdempotent(t *testing.T) {
	database := setupTestDB(t)

	task := testTask("", "Roof Installation")
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	if err := database.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := database.DeleteTask(task.ID); err != nil {
		t.Fatalf("second DeleteTask should be a no-op, got %v", err)
	}

	count, _ := database.GetTaskCount()
	if count != 0 {
		t.Errorf("expected 0 tasks, got %d", count)
	}
}

func TestDeleteTasksWhere(t *testing.T) {
	database := setupTestDB(t)

	done := testTask("u1", "Foundation Work")
	done.Status = schema.StatusCompleted
	open := testTask("u1", "Framing")
	other := testTask("u2", "Roof Installation")
	other.Status = schema.StatusCompleted
	for _, task := range []*schema.Task{done, open, other} {
		if err := database.UpsertTask(task); err != nil {
			t.Fatalf("UpsertTask failed: %v", err)
		}
	}

	n, err := database.DeleteTasksWhere(ListTasksFilter{UserID: "u1", Status: schema.StatusCompleted})
	if err != nil {
		t.Fatalf("DeleteTasksWhere failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 deleted, got %d", n)
	}

	if _, err := database.GetTaskByID(done.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("completed u1 task should be gone, got %v", err)
	}
	if _, err := database.GetTaskByID(open.ID); err != nil {
		t.Errorf("open u1 task should survive: %v", err)
	}
	if _, err := database.GetTaskByID(other.ID); err != nil {
		t.Errorf("u2 task should survive: %v", err)
	}

	if _, err := database.DeleteTasksWhere(ListTasksFilter{}); err == nil {
		t.Error("empty filter should be rejected")
	}
}

func TestInsertUserIfAbsent(t *testing.T) {
	database := setupTestDB(t)

	u := &schema.User{ID: "u1", Username: "alice", Token: "tok-1"}
	inserted, err := database.InsertUser(u)
	if err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to report true")
	}

	// A second insert must not clobber the stored record
	again := &schema.User{ID: "u1", Username: "alice", Token: ""}
	inserted, err = database.InsertUser(again)
	if err != nil {
		t.Fatalf("second InsertUser failed: %v", err)
	}
	if inserted {
		t.Error("expected second insert to report false")
	}

	got, err := database.GetUserByID("u1")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Token != "tok-1" {
		t.Errorf("insert-if-absent must not clobber the token, got %q", got.Token)
	}
}

func TestUpsertUserReplaces(t *testing.T) {
	database := setupTestDB(t)

	u := &schema.User{ID: "u1", Username: "alice", Token: "tok-1"}
	if _, err := database.InsertUser(u); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	u.Token = "tok-2"
	if err := database.UpsertUser(u); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	got, err := database.GetUserByID("u1")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Token != "tok-2" {
		t.Errorf("upsert should replace the token, got %q", got.Token)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := setupTestDB(t)

	if _, err := database.InsertUser(&schema.User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	got, err := database.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("wrong user: %+v", got)
	}

	if _, err := database.GetUserByUsername("bob"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestActiveSessionLifecycle(t *testing.T) {
	database := setupTestDB(t)

	// Signed out initially
	if _, err := database.GetActiveSession(); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows when signed out, got %v", err)
	}

	u := &schema.User{ID: "u1", Username: "alice", Token: "tok-1"}
	sess := schema.NewActiveSession(u)
	if err := database.UpsertActiveSession(sess); err != nil {
		t.Fatalf("UpsertActiveSession failed: %v", err)
	}

	got, err := database.GetActiveSession()
	if err != nil {
		t.Fatalf("GetActiveSession failed: %v", err)
	}
	if got.UserID != "u1" || got.Username != "alice" || got.Token != "tok-1" {
		t.Errorf("session fields wrong: %+v", got)
	}
	if !got.LastLoginAt.Equal(sess.LastLoginAt) {
		t.Error("login timestamp did not survive")
	}

	// Switching accounts replaces the singleton
	u2 := &schema.User{ID: "u2", Username: "bob", Token: "tok-2"}
	if err := database.UpsertActiveSession(schema.NewActiveSession(u2)); err != nil {
		t.Fatalf("second UpsertActiveSession failed: %v", err)
	}
	got, err = database.GetActiveSession()
	if err != nil {
		t.Fatalf("GetActiveSession failed: %v", err)
	}
	if got.UserID != "u2" {
		t.Errorf("expected bob's session, got %+v", got)
	}

	if err := database.ClearActiveSession(); err != nil {
		t.Fatalf("ClearActiveSession failed: %v", err)
	}
	if _, err := database.GetActiveSession(); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows after clear, got %v", err)
	}

	// Clearing twice is a no-op
	if err := database.ClearActiveSession(); err != nil {
		t.Errorf("second ClearActiveSession should be a no-op, got %v", err)
	}
}

func TestWatchTasksFiresImmediatelyAndOnChange(t *testing.T) {
	database := setupTestDB(t)

	if err := database.UpsertTask(testTask("", "Existing")); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	var last []schema.Task
	calls := 0
	cancel := database.WatchTasks(func(tasks []schema.Task) {
		last = tasks
		calls++
	})
	defer cancel()

	if calls != 1 || len(last) != 1 {
		t.Fatalf("expected immediate replay of 1 task, calls=%d len=%d", calls, len(last))
	}

	task := testTask("", "New")
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}
	if calls != 2 || len(last) != 2 {
		t.Fatalf("expected delivery after upsert, calls=%d len=%d", calls, len(last))
	}

	if err := database.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if len(last) != 1 {
		t.Errorf("expected 1 task after delete, got %d", len(last))
	}

	// Deleting an absent row changes nothing, so no delivery
	before := calls
	if err := database.DeleteTask("nope"); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if calls != before {
		t.Errorf("no-op delete should not notify, calls went %d -> %d", before, calls)
	}
}

func TestWatchCancelStopsDelivery(t *testing.T) {
	database := setupTestDB(t)

	calls := 0
	cancel := database.WatchTasks(func([]schema.Task) { calls++ })
	cancel()

	if err := database.UpsertTask(testTask("", "After")); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected only the replay call, got %d", calls)
	}
}

func TestWatchActiveSession(t *testing.T) {
	database := setupTestDB(t)

	var last *schema.ActiveSession
	calls := 0
	cancel := database.WatchActiveSession(func(sess *schema.ActiveSession) {
		last = sess
		calls++
	})
	defer cancel()

	if calls != 1 || last != nil {
		t.Fatalf("expected immediate nil replay, calls=%d last=%v", calls, last)
	}

	u := &schema.User{ID: "u1", Username: "alice"}
	if err := database.UpsertActiveSession(schema.NewActiveSession(u)); err != nil {
		t.Fatalf("UpsertActiveSession failed: %v", err)
	}
	if last == nil || last.UserID != "u1" {
		t.Errorf("expected session delivery, got %v", last)
	}

	if err := database.ClearActiveSession(); err != nil {
		t.Fatalf("ClearActiveSession failed: %v", err)
	}
	if last != nil {
		t.Errorf("expected nil after clear, got %v", last)
	}
}

func TestReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := database.InitSchema(); err != nil {
		t.Fatalf("InitSchema failed: %v", err)
	}

	task := testTask("u1", "Survives Restart")
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetTaskByID(task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID after reopen failed: %v", err)
	}
	if got.Name != "Survives Restart" {
		t.Errorf("task did not survive reopen: %+v", got)
	}
}
