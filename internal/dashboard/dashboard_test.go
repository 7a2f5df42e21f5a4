package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/nbake/nbake/internal/baker"
	"github.com/nbake/nbake/internal/tracker"
)

var lastEvent = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testStatus() []tracker.Snapshot {
	return []tracker.Snapshot{
		{Path: "/work/notes", State: tracker.Dirty, LastEvent: lastEvent, QuietPeriod: 10 * time.Second},
		{Path: "/work/site", State: tracker.Clean, QuietPeriod: 5 * time.Second},
	}
}

func startServer(t *testing.T) *Server {
	t.Helper()

	server := NewServer(&Config{
		Host:   "127.0.0.1",
		Port:   0, // Use random available port
		Status: testStatus,
		Logger: log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func dial(t *testing.T, ctx context.Context, server *Server) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.GetAddr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Failed to connect WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()

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
	server := NewServer(&Config{Host: "127.0.0.1", Port: 0, Logger: log.New(io.Discard, "", 0)})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	if server.GetAddr() == "" {
		t.Fatal("Server address is empty")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}
}

func TestWelcomeStatus(t *testing.T) {
	server := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeStatus {
		t.Fatalf("welcome type = %s, want %s", msg.Type, MessageTypeStatus)
	}

	var status StatusData
	if err := json.Unmarshal(msg.Data, &status); err != nil {
		t.Fatalf("Failed to unmarshal status: %v", err)
	}
	if len(status.Trackers) != 2 {
		t.Fatalf("got %d trackers, want 2", len(status.Trackers))
	}
	notes := status.Trackers[0]
	if notes.Path != "/work/notes" || notes.State != "dirty" || !notes.LastEvent.Equal(lastEvent) {
		t.Errorf("tracker = %+v", notes)
	}
	if notes.QuietPeriodMs != 10000 {
		t.Errorf("QuietPeriodMs = %d", notes.QuietPeriodMs)
	}

	if count := server.ClientCount(); count != 1 {
		t.Errorf("Expected 1 client, got %d", count)
	}
}

func TestHandlerBroadcastsEvents(t *testing.T) {
	server := startServer(t)
	handler := NewHandler(server, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dial(t, ctx, server)
	readMessage(t, ctx, conn) // welcome

	handler.Observe(baker.Event{Type: baker.EventTrackerDirty, Path: "/work/notes", Time: lastEvent})

	msg := readMessage(t, ctx, conn)
	if msg.Type != MessageTypeTrackerDirty {
		t.Fatalf("type = %s, want %s", msg.Type, MessageTypeTrackerDirty)
	}
	var dirty TrackerDirtyData
	if err := json.Unmarshal(msg.Data, &dirty); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if dirty.Path != "/work/notes" || !dirty.At.Equal(lastEvent) {
		t.Errorf("tracker_dirty data = %+v", dirty)
	}

	handler.Observe(baker.Event{
		Type:     baker.EventCommit,
		Path:     "/work/notes",
		Outcome:  baker.OutcomeFailed,
		Duration: 250 * time.Millisecond,
		Err:      errors.New("exit status 128"),
	})

	msg = readMessage(t, ctx, conn)
	if msg.Type != MessageTypeCommit {
		t.Fatalf("type = %s, want %s", msg.Type, MessageTypeCommit)
	}
	var commit CommitData
	if err := json.Unmarshal(msg.Data, &commit); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if commit.Outcome != "failed" || commit.DurationMs != 250 || commit.Error != "exit status 128" {
		t.Errorf("commit data = %+v", commit)
	}

	// A commit is followed by a fresh status snapshot
	if msg := readMessage(t, ctx, conn); msg.Type != MessageTypeStatus {
		t.Errorf("after commit got %s, want %s", msg.Type, MessageTypeStatus)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	server := startServer(t)
	base := "http://" + server.GetAddr()

	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	var health map[string]any
	err = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}

	resp, err = http.Get(base + "/status")
	if err != nil {
		t.Fatalf("GET /status failed: %v", err)
	}
	var msg Message
	err = json.NewDecoder(resp.Body).Decode(&msg)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if msg.Type != MessageTypeStatus {
		t.Errorf("status type = %s", msg.Type)
	}
}
