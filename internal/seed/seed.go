// Package seed populates a fresh database with demo construction tasks.
//
// The demo board carries no owner, so it is visible whenever nobody is
// signed in and untouched by account scoping.
package seed

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

// DemoTasks returns the five demo construction tasks with fresh ids.
func DemoTasks() []*schema.Task {
	return []*schema.Task{
		demoTask("Foundation Work",
			"Excavate and pour concrete for the building foundation.",
			schema.StatusPending, schema.IconLampwork, 100, 200,
			"2024-06-01T08:00:00Z",
			demoItem("Excavate and pour concrete for the building foundation.", schema.ChecklistInProgress),
			demoItem("Install reinforcement steel", schema.ChecklistFinalCheck),
		),
		demoTask("Framing",
			"Construct the structural framework for walls and floors.",
			schema.StatusAwaiting, schema.IconLighting, 300, 250,
			"2024-06-01T08:10:00Z",
			demoItem("Set wall studs and floor joists", schema.ChecklistInProgress),
			demoItem("Brace load-bearing sections", schema.ChecklistNotStarted),
		),
		demoTask("Roof Installation",
			"Install trusses and roofing materials.",
			schema.StatusInProgress, schema.IconElectrical, 500, 180,
			"2024-06-01T08:20:00Z",
			demoItem("Set trusses and sheathing", schema.ChecklistInProgress),
		),
		demoTask("Electrical Wiring",
			"Run electrical wiring and install panels/outlets.",
			schema.StatusCompleted, schema.IconPlumbing, 200, 400,
			"2024-06-01T08:30:00Z",
			demoItem("Pull wiring and fit panels", schema.ChecklistDone),
		),
		demoTask("Interior Finishing",
			"Install drywall, paint, and complete interior finishes.",
			schema.StatusPending, schema.IconPainting, 350, 350,
			"2024-06-01T08:40:00Z",
			demoItem("Hang and tape drywall", schema.ChecklistNotStarted),
		),
	}
}

// Apply inserts the demo tasks into the durable store. Existing tasks are
// left alone; seeding an already-populated database is a no-op.
func Apply(database *db.DB) (int, error) {
	count, err := database.GetTaskCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	seeded := 0
	for _, t := range DemoTasks() {
		if err := database.UpsertTask(t); err != nil {
			return seeded, fmt.Errorf("failed to seed task %q: %w", t.Name, err)
		}
		seeded++
	}
	return seeded, nil
}

func demoTask(name, description string, status schema.TaskStatus, icon schema.IconID, x, y float64, created string, items ...schema.ChecklistItem) *schema.Task {
	ts, _ := time.Parse(time.RFC3339, created)
	return &schema.Task{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      status,
		IconID:      icon,
		Coordinates: schema.Coordinates{X: x, Y: y},
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Checklist:   items,
	}
}

func demoItem(name string, status schema.ChecklistStatus) schema.ChecklistItem {
	return schema.ChecklistItem{
		ID:          uuid.NewString(),
		IconID:      schema.IconLampwork,
		Name:        name,
		Description: name,
		Status:      schema.NewChecklistStatus(status),
	}
}
