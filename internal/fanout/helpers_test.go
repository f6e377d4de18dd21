package fanout

import (
	"encoding/json"
	"sync"
	"testing"

	ws "github.com/dukerupert/basket/internal/websocket"
)

// recordingHub captures everything delivered to it, keyed by group.
type recordingHub struct {
	mu        sync.Mutex
	delivered map[string][][]byte
}

func newRecordingHub() *recordingHub {
	return &recordingHub{delivered: make(map[string][][]byte)}
}

func (h *recordingHub) Broadcast(group string, msg ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		panic(err)
	}
	h.Deliver(group, data)
}

func (h *recordingHub) Deliver(group string, data []byte) {
	h.mu.Lock()
	h.delivered[group] = append(h.delivered[group], data)
	h.mu.Unlock()
}

func (h *recordingHub) messages(t *testing.T, group string) []ws.Message {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []ws.Message
	for _, data := range h.delivered[group] {
		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		out = append(out, msg)
	}
	return out
}
