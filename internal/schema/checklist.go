package schema

import (
	"fmt"

	"github.com/google/uuid"
)

// ChecklistStatus is the state of a single checklist entry. This is a
// different enum space from TaskStatus.
type ChecklistStatus string

const (
	ChecklistNotStarted ChecklistStatus = "not-started"
	ChecklistInProgress ChecklistStatus = "in-progress"
	ChecklistBlocked    ChecklistStatus = "blocked"
	ChecklistFinalCheck ChecklistStatus = "final-check"
	ChecklistAwaiting   ChecklistStatus = "awaiting"
	ChecklistDone       ChecklistStatus = "done"
)

// Valid reports whether s is one of the allowed checklist statuses.
func (s ChecklistStatus) Valid() bool {
	switch s {
	case ChecklistNotStarted, ChecklistInProgress, ChecklistBlocked,
		ChecklistFinalCheck, ChecklistAwaiting, ChecklistDone:
		return true
	}
	return false
}

// DisplayName returns the human-readable label for s.
func (s ChecklistStatus) DisplayName() string {
	switch s {
	case ChecklistNotStarted:
		return "Not Started"
	case ChecklistInProgress:
		return "In Progress"
	case ChecklistBlocked:
		return "Blocked"
	case ChecklistFinalCheck:
		return "Final Check"
	case ChecklistAwaiting:
		return "Awaiting"
	case ChecklistDone:
		return "Done"
	default:
		return string(s)
	}
}

// ChecklistStatusValue is the tagged status stored on a checklist item.
// Name is denormalized display text derived from ID; external callers may
// supply both, but the pair must agree.
type ChecklistStatusValue struct {
	ID   ChecklistStatus `json:"id"`
	Name string          `json:"name"`
}

// NewChecklistStatus builds a status value with the display name derived
// from the id, so the two cannot disagree.
func NewChecklistStatus(id ChecklistStatus) ChecklistStatusValue {
	return ChecklistStatusValue{ID: id, Name: id.DisplayName()}
}

// Validate checks enum membership and that a caller-supplied name matches
// the derived display name.
func (v ChecklistStatusValue) Validate() error {
	if !v.ID.Valid() {
		return fmt.Errorf("invalid checklist status %q", v.ID)
	}
	if v.Name != "" && v.Name != v.ID.DisplayName() {
		return fmt.Errorf("checklist status name %q does not match status %q (want %q)",
			v.Name, v.ID, v.ID.DisplayName())
	}
	return nil
}

// SetDefaults fills in the display name when a caller supplied only the id.
func (v *ChecklistStatusValue) SetDefaults() {
	if v.Name == "" {
		v.Name = v.ID.DisplayName()
	}
}

// ChecklistItem is one entry in a task's ordered checklist.
type ChecklistItem struct {
	ID          string               `json:"id"`
	IconID      IconID               `json:"iconID"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Status      ChecklistStatusValue `json:"status"`
}

// NewChecklistItem creates a checklist item with a fresh id and status
// not-started.
func NewChecklistItem(name, description string, icon IconID) ChecklistItem {
	return ChecklistItem{
		ID:          uuid.NewString(),
		IconID:      icon,
		Name:        name,
		Description: description,
		Status:      NewChecklistStatus(ChecklistNotStarted),
	}
}

// Validate checks required fields and bounds for the item.
func (c *ChecklistItem) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("id is required")
	}
	if len(c.ID) > 100 {
		return fmt.Errorf("id must be 100 characters or less (got %d)", len(c.ID))
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !c.IconID.Valid() {
		return fmt.Errorf("invalid iconID %q", c.IconID)
	}
	if err := c.Status.Validate(); err != nil {
		return fmt.Errorf("status: %w", err)
	}
	return nil
}
