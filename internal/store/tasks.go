package store

import "github.com/plantrack/plantrack/internal/schema"

// Task returns the task with the given id, or false if absent.
func (s *Store) Task(id string) (schema.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Tasks returns the current task slice ordered by creation time.
func (s *Store) Tasks() []schema.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskSnapshotLocked()
}

// TasksByUserID returns the tasks owned by the given user.
func (s *Store) TasksByUserID(userID string) []schema.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []schema.Task
	for _, t := range s.taskSnapshotLocked() {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// UpsertTask inserts or replaces a task by id. Last write wins; there is no
// error on duplicate ids.
func (s *Store) UpsertTask(t schema.Task) {
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// AddTask adds a newly created task. Tasks owned by someone other than the
// active user are dropped silently, mirroring the scoped working set.
func (s *Store) AddTask(t schema.Task) {
	s.mu.Lock()
	activeID := ""
	if s.activeUser != nil {
		activeID = s.activeUser.ID
	}
	if t.UserID != activeID {
		s.mu.Unlock()
		return
	}
	s.tasks[t.ID] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// RemoveTask deletes a task by id. Removing an absent id is a no-op, not
// an error.
func (s *Store) RemoveTask(id string) {
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	s.notifyTasks()
}

// UpdateTaskStatus sets the status of an existing task. Missing ids are a
// silent no-op.
func (s *Store) UpdateTaskStatus(id string, status schema.TaskStatus) {
	s.mu.Lock()
	t, ok := s.tasks[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	t.Status = status
	t.Touch()
	s.tasks[id] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// ReplaceAllTasks bulk-replaces the task slice, used when hydrating from
// durable storage. Tasks outside the active user's scope are filtered out
// before replacement.
func (s *Store) ReplaceAllTasks(tasks []schema.Task) {
	s.mu.Lock()
	activeID := ""
	if s.activeUser != nil {
		activeID = s.activeUser.ID
	}
	next := make(map[string]schema.Task, len(tasks))
	for _, t := range schema.VisibleTasks(tasks, activeID) {
		next[t.ID] = t
	}
	s.tasks = next
	s.mu.Unlock()
	s.notifyTasks()
}

// ClearTasks empties the task slice.
func (s *Store) ClearTasks() {
	s.mu.Lock()
	s.tasks = make(map[string]schema.Task)
	s.mu.Unlock()
	s.notifyTasks()
}

// ClearTasksByUserID removes every task owned by the given user.
func (s *Store) ClearTasksByUserID(userID string) {
	s.mu.Lock()
	for id, t := range s.tasks {
		if t.UserID == userID {
			delete(s.tasks, id)
		}
	}
	s.mu.Unlock()
	s.notifyTasks()
}

// AddChecklistItem appends an item to a task's checklist. Missing task ids
// are a silent no-op.
func (s *Store) AddChecklistItem(taskID string, item schema.ChecklistItem) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	t.Checklist = append(append([]schema.ChecklistItem{}, t.Checklist...), item)
	t.Touch()
	s.tasks[taskID] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// UpdateChecklistItem replaces the checklist item with a matching id.
// Missing task or item ids are a silent no-op.
func (s *Store) UpdateChecklistItem(taskID string, item schema.ChecklistItem) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	replaced := false
	next := make([]schema.ChecklistItem, len(t.Checklist))
	for i, existing := range t.Checklist {
		if existing.ID == item.ID {
			next[i] = item
			replaced = true
		} else {
			next[i] = existing
		}
	}
	if !replaced {
		s.mu.Unlock()
		return
	}
	t.Checklist = next
	t.Touch()
	s.tasks[taskID] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// UpdateChecklistItemStatus sets the status of one checklist item, deriving
// the display name from the status id so the pair stays consistent.
func (s *Store) UpdateChecklistItemStatus(taskID, itemID string, status schema.ChecklistStatus) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	updated := false
	next := make([]schema.ChecklistItem, len(t.Checklist))
	for i, existing := range t.Checklist {
		if existing.ID == itemID {
			existing.Status = schema.NewChecklistStatus(status)
			updated = true
		}
		next[i] = existing
	}
	if !updated {
		s.mu.Unlock()
		return
	}
	t.Checklist = next
	t.Touch()
	s.tasks[taskID] = t
	s.mu.Unlock()
	s.notifyTasks()
}

// DeleteChecklistItem removes one checklist item. Missing task or item ids
// are a silent no-op.
func (s *Store) DeleteChecklistItem(taskID, itemID string) {
	s.mu.Lock()
	t, ok := s.tasks[taskID]
	if !ok {
		s.mu.Unlock()
		return
	}
	next := make([]schema.ChecklistItem, 0, len(t.Checklist))
	for _, existing := range t.Checklist {
		if existing.ID != itemID {
			next = append(next, existing)
		}
	}
	if len(next) == len(t.Checklist) {
		s.mu.Unlock()
		return
	}
	t.Checklist = next
	t.Touch()
	s.tasks[taskID] = t
	s.mu.Unlock()
	s.notifyTasks()
}
