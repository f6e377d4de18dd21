package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/basket/internal/model"
)

// racingSource returns a stale snapshot after a newer one has already been
// broadcast, the way a change committed while a subscriber connects looks to
// the handler.
type racingSource struct {
	hub *Hub
}

func (s *racingSource) Snapshot(group string) (*model.Snapshot, error) {
	stale := &model.Snapshot{GroupCode: group, Version: 1, Items: []model.Item{}}
	fresh := &model.Snapshot{
		GroupCode: group,
		Version:   2,
		Items:     []model.Item{{ID: "i1", GroupCode: group, Name: "Milk", Quantity: 1}},
	}
	s.hub.Broadcast(group, NewMessage("grocery_item", "created", "i1", fresh))
	return stale, nil
}

type missingSource struct{}

func (missingSource) Snapshot(string) (*model.Snapshot, error) { return nil, nil }

func serveHandler(t *testing.T, hub *Hub, source SnapshotSource) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("GET /groups/{code}/ws", HandleWebSocket(hub, source, slog.Default()))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readSnapshot(t *testing.T, ctx context.Context, conn *ws.Conn) *model.Snapshot {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Snapshot == nil {
		t.Fatalf("message %q carries no snapshot", msg.Type)
	}
	return msg.Snapshot
}

func TestHandleWebSocketDeliversChangeDuringConnect(t *testing.T) {
	hub := NewHub(slog.Default())
	url := serveHandler(t, hub, &racingSource{hub: hub})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := ws.Dial(ctx, url+"/groups/k3j9qz/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	first := readSnapshot(t, ctx, conn)
	if first.Version != 1 || len(first.Items) != 0 {
		t.Fatalf("first frame = version %d with %d items, want the initial snapshot", first.Version, len(first.Items))
	}

	second := readSnapshot(t, ctx, conn)
	if second.Version != 2 || len(second.Items) != 1 || second.Items[0].Name != "Milk" {
		t.Fatalf("second frame = version %d with %d items, want the change made while connecting", second.Version, len(second.Items))
	}

	view := first
	if second.Supersedes(view) {
		view = second
	}
	if len(view.Items) != 1 {
		t.Errorf("final view has %d items, want 1", len(view.Items))
	}
}

func TestHandleWebSocketUnknownGroup(t *testing.T) {
	hub := NewHub(slog.Default())
	url := serveHandler(t, hub, missingSource{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := ws.Dial(ctx, url+"/groups/ZZZZZZ/ws", nil)
	if err == nil {
		t.Fatal("expected dial to fail for unknown group")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 response, got %+v", resp)
	}
	// The handler unregisters after the response is written
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected rejected subscriber to be unregistered, %d clients remain", got)
	}
}
