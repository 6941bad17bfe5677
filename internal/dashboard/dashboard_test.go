package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/plantrack/plantrack/internal/db"
	"github.com/plantrack/plantrack/internal/schema"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	server := NewServer(&Config{
		Port:   0, // random available port
		Logger: log.New(io.Discard, "", 0),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func dialTestClient(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}
	return msg
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(&Config{
		Port:   0,
		Logger: log.New(io.Discard, "", 0),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}

	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWebSocketConnection(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestClient(t, server)

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}

	// Welcome message arrives first
	msg := readMessage(t, conn)
	if msg.Type != MessageTypeStats {
		t.Errorf("Expected stats welcome message, got %s", msg.Type)
	}
}

func TestBroadcast(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestClient(t, server)

	readMessage(t, conn) // welcome

	data, _ := json.Marshal(TaskUpdateData{TaskID: "t1", Action: "created", Name: "Foundation Work"})
	server.Broadcast(Message{Type: MessageTypeTaskUpdate, Data: data})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeTaskUpdate {
		t.Fatalf("Expected task_update, got %s", msg.Type)
	}

	var got TaskUpdateData
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	if got.TaskID != "t1" || got.Action != "created" {
		t.Errorf("Wrong payload: %+v", got)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Broadcast should stamp messages")
	}
}

func TestHandlerBroadcastsDurableChanges(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	server := startTestServer(t)
	handler := NewHandler(server, log.New(io.Discard, "", 0))
	handler.Attach(database)
	defer handler.Detach()

	conn := dialTestClient(t, server)
	readMessage(t, conn) // welcome

	task := schema.NewTask("", "Roof Installation", "", schema.IconRoofing, schema.Coordinates{X: 500, Y: 180})
	if err := database.UpsertTask(task); err != nil {
		t.Fatalf("UpsertTask failed: %v", err)
	}

	// The upsert produces a task_update followed by refreshed stats
	msg := readMessage(t, conn)
	if msg.Type != MessageTypeTaskUpdate {
		t.Fatalf("Expected task_update, got %s", msg.Type)
	}
	var update TaskUpdateData
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		t.Fatalf("Failed to unmarshal update: %v", err)
	}
	if update.TaskID != task.ID || update.Action != "created" {
		t.Errorf("Wrong update payload: %+v", update)
	}

	msg = readMessage(t, conn)
	if msg.Type != MessageTypeStats {
		t.Fatalf("Expected stats after update, got %s", msg.Type)
	}
	var stats StatsData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("Failed to unmarshal stats: %v", err)
	}
	if stats.Total != 1 || stats.Unowned != 1 {
		t.Errorf("Wrong stats: %+v", stats)
	}
}

func TestHandlerSessionMessages(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := database.InitSchema(); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}

	server := startTestServer(t)
	handler := NewHandler(server, log.New(io.Discard, "", 0))
	handler.Attach(database)
	defer handler.Detach()

	conn := dialTestClient(t, server)
	readMessage(t, conn) // welcome

	u := &schema.User{ID: "u1", Username: "alice"}
	if err := database.UpsertActiveSession(schema.NewActiveSession(u)); err != nil {
		t.Fatalf("UpsertActiveSession failed: %v", err)
	}

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeSessionUpdate {
		t.Fatalf("Expected session_update, got %s", msg.Type)
	}
	var sess SessionUpdateData
	if err := json.Unmarshal(msg.Data, &sess); err != nil {
		t.Fatalf("Failed to unmarshal session: %v", err)
	}
	if !sess.SignedIn || sess.Username != "alice" {
		t.Errorf("Wrong session payload: %+v", sess)
	}
}
