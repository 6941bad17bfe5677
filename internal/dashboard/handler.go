package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

// Handler subscribes to durable-store change streams and formats them as
// dashboard messages. It bridges between the collection watchers and the
// WebSocket server.
type Handler struct {
	server *Server
	logger *log.Logger

	// Previous task snapshot, used to derive created/updated/deleted
	// actions from full-collection emissions.
	known map[string]schema.Task

	cancels []func()
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
		known:  make(map[string]schema.Task),
	}
}

// Attach subscribes the handler to the durable store's task and session
// change streams. Call Detach to unsubscribe.
func (h *Handler) Attach(database *db.DB) {
	h.cancels = append(h.cancels,
		database.WatchTasks(h.onTasks),
		database.WatchActiveSession(h.onSession),
	)
}

// Detach cancels the handler's change-stream subscriptions.
func (h *Handler) Detach() {
	for _, cancel := range h.cancels {
		cancel()
	}
	h.cancels = nil
}

// onTasks diffs the emitted collection against the previous snapshot and
// broadcasts one task_update per changed record, then refreshed stats.
func (h *Handler) onTasks(tasks []schema.Task) {
	current := make(map[string]schema.Task, len(tasks))
	for _, t := range tasks {
		current[t.ID] = t
	}

	for id, t := range current {
		prev, seen := h.known[id]
		switch {
		case !seen:
			h.broadcastTask(t, "created")
		case !prev.UpdatedAt.Equal(t.UpdatedAt):
			h.broadcastTask(t, "updated")
		}
	}

	for id, prev := range h.known {
		if _, exists := current[id]; !exists {
			h.broadcastTask(prev, "deleted")
		}
	}

	h.known = current
	h.broadcastStats(tasks)
}

// onSession broadcasts sign-in state transitions.
func (h *Handler) onSession(sess *schema.ActiveSession) {
	data := SessionUpdateData{}
	if sess != nil {
		data.SignedIn = true
		data.UserID = sess.UserID
		data.Username = sess.Username
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal session data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeSessionUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// OnImportComplete broadcasts the result of a full file import.
func (h *Handler) OnImportComplete(imported, failed int, duration time.Duration) {
	h.logger.Printf("Import complete: imported=%d failed=%d duration=%v", imported, failed, duration)

	data := ImportCompleteData{
		Imported: imported,
		Failed:   failed,
		Duration: duration,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal import data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeImportComplete,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

func (h *Handler) broadcastTask(t schema.Task, action string) {
	h.logger.Printf("Task %s: %s (%s)", action, t.ID, t.Name)

	done := 0
	for _, item := range t.Checklist {
		if item.Status.ID == schema.ChecklistDone {
			done++
		}
	}

	data := TaskUpdateData{
		TaskID: t.ID,
		Action: action,
		Status: string(t.Status),
		Name:   t.Name,
		UserID: t.UserID,
		Done:   done,
		Items:  len(t.Checklist),
		X:      t.Coordinates.X,
		Y:      t.Coordinates.Y,
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal task data: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeTaskUpdate,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

func (h *Handler) broadcastStats(tasks []schema.Task) {
	stats := StatsData{
		Total:    len(tasks),
		ByStatus: make(map[string]int),
	}
	for _, t := range tasks {
		stats.ByStatus[string(t.Status)]++
		if t.UserID == "" {
			stats.Unowned++
		}
		if t.Status == schema.StatusCompleted {
			stats.Completed++
		}
	}

	dataJSON, err := json.Marshal(stats)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}
