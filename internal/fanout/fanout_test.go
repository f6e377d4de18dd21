package fanout

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dukerupert/basket/internal/model"
	ws "github.com/dukerupert/basket/internal/websocket"
)

func TestChannelRoundTrip(t *testing.T) {
	group, ok := groupFromChannel(Channel("K3J9QZ"))
	if !ok || group != "K3J9QZ" {
		t.Errorf("groupFromChannel(Channel(K3J9QZ)) = %q, %v", group, ok)
	}
}

func TestGroupFromChannelRejectsForeign(t *testing.T) {
	tests := []string{"", "basket:group:", "other:group:K3J9QZ", "K3J9QZ"}
	for _, ch := range tests {
		if _, ok := groupFromChannel(ch); ok {
			t.Errorf("groupFromChannel(%q) accepted a foreign channel", ch)
		}
	}
}

func TestLocalPublishReachesHub(t *testing.T) {
	hub := newRecordingHub()
	broker := NewLocal(hub)

	msg := ws.NewMessage("grocery_item", "deleted", "x", &model.Snapshot{GroupCode: "K3J9QZ", Version: 3})
	if err := broker.Publish(context.Background(), "K3J9QZ", msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got := hub.messages(t, "K3J9QZ")
	if len(got) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(got))
	}
	if got[0].Type != "grocery_item_deleted" {
		t.Errorf("type = %q, want grocery_item_deleted", got[0].Type)
	}
	if got[0].Snapshot == nil || got[0].Snapshot.Version != 3 {
		t.Errorf("snapshot = %+v, want version 3", got[0].Snapshot)
	}
	if other := hub.messages(t, "AAAAAA"); len(other) != 0 {
		t.Errorf("other group received %d messages", len(other))
	}
}

func TestLocalPublishThroughRealHub(t *testing.T) {
	// Publishing to a group with no subscribers is harmless
	broker := NewLocal(ws.NewHub(slog.Default()))
	if err := broker.Publish(context.Background(), "K3J9QZ", ws.NewMessage("grocery_item", "created", "x", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
