package schema

// VisibleTasks filters tasks to those owned by the given user.
//
// The filter is a strict ownership match: with an active user only that
// user's tasks pass; with no active user (activeUserID == "") only unowned
// legacy/demo tasks pass. Owned tasks are therefore never visible outside
// their owner's session, and demo data disappears as soon as a real user
// signs in.
func VisibleTasks(tasks []Task, activeUserID string) []Task {
	visible := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID == activeUserID {
			visible = append(visible, t)
		}
	}
	return visible
}
