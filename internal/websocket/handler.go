package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/basket/internal/model"
)

// SnapshotSource produces the current snapshot of a group's live list. It
// returns nil with no error when the group does not exist.
type SnapshotSource interface {
	Snapshot(group string) (*model.Snapshot, error)
}

// HandleWebSocket returns an HTTP handler that subscribes the caller to the
// live list of the group named by the {code} path parameter. The first frame
// is always the current snapshot. The subscriber is registered before that
// snapshot is read, so any change committed after the read is also delivered.
func HandleWebSocket(hub *Hub, source SnapshotSource, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		group := strings.ToUpper(strings.TrimSpace(r.PathValue("code")))

		client := NewClient(hub, group)
		hub.Register(client)
		defer hub.Unregister(client)

		snap, err := source.Snapshot(group)
		if err != nil {
			logger.Error("initial snapshot", "group", group, "error", err)
			http.Error(w, "failed to load snapshot", http.StatusInternalServerError)
			return
		}
		if snap == nil {
			http.Error(w, "group not found", http.StatusNotFound)
			return
		}

		initial, err := json.Marshal(NewMessage("grocery_item", "snapshot", "", snap))
		if err != nil {
			logger.Error("marshal initial snapshot", "group", group, "error", err)
			http.Error(w, "failed to encode snapshot", http.StatusInternalServerError)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Native and CLI clients send no Origin
		})
		if err != nil {
			logger.Warn("accept", "group", group, "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("subscriber connected", "group", group, "version", snap.Version)
		client.Run(r.Context(), conn, initial)
		logger.Debug("subscriber disconnected", "group", group)
	}
}
