// Package schema provides the record shapes persisted by plantrack: tasks
// placed on a floor plan, their checklists, registered users, and the active
// session pointer. Records are validated before they reach durable storage.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a task on the floor plan.
type TaskStatus string

const (
	StatusAwaiting   TaskStatus = "awaiting"
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the allowed task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusAwaiting, StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// IconID identifies the trade category a task belongs to.
type IconID string

const (
	IconLampwork   IconID = "lampwork"
	IconLighting   IconID = "lighting"
	IconElectrical IconID = "electrical"
	IconPlumbing   IconID = "plumbing"
	IconPainting   IconID = "painting"
	IconCarpentry  IconID = "carpentry"
	IconMasonry    IconID = "masonry"
	IconFlooring   IconID = "flooring"
	IconRoofing    IconID = "roofing"
	IconWalling    IconID = "walling"
	IconCeiling    IconID = "ceiling"
	IconDoors      IconID = "doors"
	IconWindows    IconID = "windows"
	IconOther      IconID = "other"
)

var iconIDs = map[IconID]bool{
	IconLampwork: true, IconLighting: true, IconElectrical: true,
	IconPlumbing: true, IconPainting: true, IconCarpentry: true,
	IconMasonry: true, IconFlooring: true, IconRoofing: true,
	IconWalling: true, IconCeiling: true, IconDoors: true,
	IconWindows: true, IconOther: true,
}

// Valid reports whether id is a known trade category.
func (id IconID) Valid() bool {
	return iconIDs[id]
}

// Coordinates is a task marker position in image space (pixels on the
// uploaded floor plan, not screen space).
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Task is a construction task pinned to a position on the floor plan.
//
// The structure is flat with last-write-wins semantics: each record is
// replaced wholesale on update, and UpdatedAt helps humans reason about
// which write was last. ID is immutable after creation.
type Task struct {
	ID          string `json:"id"`
	UserID      string `json:"userId,omitempty"` // empty for legacy/demo data
	Name        string `json:"name"`
	Description string `json:"description"`

	Status TaskStatus `json:"status"`
	IconID IconID     `json:"iconID"`

	Coordinates Coordinates `json:"coordinates"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Checklist order is insertion order and is meaningful for display.
	Checklist []ChecklistItem `json:"checklist"`
}

// NewTask creates a task with a fresh id, status awaiting, and a single
// default checklist item mirroring the task itself.
//
// Timestamps are truncated to second precision; durable storage keeps
// RFC3339 strings, so finer precision would not survive a round trip.
func NewTask(userID, name, description string, icon IconID, pos Coordinates) *Task {
	now := time.Now().UTC().Truncate(time.Second)
	return &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      StatusAwaiting,
		IconID:      icon,
		Coordinates: pos,
		CreatedAt:   now,
		UpdatedAt:   now,
		Checklist: []ChecklistItem{
			{
				ID:          uuid.NewString(),
				IconID:      icon,
				Name:        name,
				Description: description,
				Status:      NewChecklistStatus(ChecklistNotStarted),
			},
		},
	}
}

// Validate checks required fields, enum membership, and length bounds.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(t.ID) > 100 {
		return fmt.Errorf("id must be 100 characters or less (got %d)", len(t.ID))
	}
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Name) > 255 {
		return fmt.Errorf("name must be 255 characters or less (got %d)", len(t.Name))
	}
	if !t.Status.Valid() {
		return fmt.Errorf("invalid status %q", t.Status)
	}
	if !t.IconID.Valid() {
		return fmt.Errorf("invalid iconID %q", t.IconID)
	}
	if t.CreatedAt.IsZero() {
		return fmt.Errorf("createdAt is required")
	}
	if t.UpdatedAt.IsZero() {
		return fmt.Errorf("updatedAt is required")
	}
	for i := range t.Checklist {
		if err := t.Checklist[i].Validate(); err != nil {
			return fmt.Errorf("checklist item %d: %w", i, err)
		}
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusAwaiting
	}
	if t.IconID == "" {
		t.IconID = IconOther
	}
	if t.Checklist == nil {
		t.Checklist = []ChecklistItem{}
	}
	now := time.Now().UTC().Truncate(time.Second)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	for i := range t.Checklist {
		t.Checklist[i].Status.SetDefaults()
	}
}

// Touch sets UpdatedAt to the current time. Call after modifying any field.
func (t *Task) Touch() {
	t.UpdatedAt = time.Now().UTC().Truncate(time.Second)
}

// ChecklistItemByID returns a pointer to the checklist item with the given
// id, or nil if absent.
func (t *Task) ChecklistItemByID(id string) *ChecklistItem {
	for i := range t.Checklist {
		if t.Checklist[i].ID == id {
			return &t.Checklist[i]
		}
	}
	return nil
}

// Filename returns the canonical export filename for this task: {id}.json
func (t *Task) Filename() string {
	return fmt.Sprintf("%s.json", t.ID)
}

// ReadTaskFile reads, parses, and validates a task JSON file.
func ReadTaskFile(path string) (*Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file %s: %w", path, err)
	}

	var task Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task file %s: %w", path, err)
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task file %s: %w", path, err)
	}

	return &task, nil
}

// WriteTaskFile writes a task to dir/{id}.json with pretty-printed JSON.
func WriteTaskFile(dir string, task *Task) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("cannot write invalid task: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create tasks directory: %w", err)
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
	}

	path := filepath.Join(dir, task.Filename())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write task file %s: %w", path, err)
	}

	return nil
}

// ReadAllTaskFiles reads every *.json task file in dir. Invalid files are
// skipped with a warning to stderr so one bad export cannot block an import.
func ReadAllTaskFiles(dir string) ([]*Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Task{}, nil
		}
		return nil, fmt.Errorf("failed to read tasks directory: %w", err)
	}

	var tasks []*Task
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		task, err := ReadTaskFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping invalid task file %s: %v\n", entry.Name(), err)
			continue
		}

		tasks = append(tasks, task)
	}

	return tasks, nil
}
