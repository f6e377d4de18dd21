package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coder/websocket"

	"github.com/dukerupert/basket/internal/model"
	hub "github.com/dukerupert/basket/internal/websocket"
)

const maxMessageSize = 1 << 20

// Subscribe streams snapshots of a group's live list to fn until ctx is
// cancelled or the server closes the stream. The first snapshot arrives
// immediately after the handshake. A cancelled ctx returns ctx.Err().
func (c *Client) Subscribe(ctx context.Context, code string, fn func(*model.Snapshot)) error {
	wsURL := c.baseURL + groupPath(code, "items", "ws")
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.timeout)
	conn, resp, err := websocket.Dial(dialCtx, wsURL, nil)
	cancel()
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			return fmt.Errorf("subscribe %s: %w", code, &StatusError{Code: resp.StatusCode})
		}
		return fmt.Errorf("subscribe %s: %w", code, err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxMessageSize)

	c.logger.Debug("subscribed", "group", code)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return ctx.Err()
			}
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read snapshot: %w", err)
		}

		var msg hub.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed message", "group", code, "error", err)
			continue
		}
		if msg.Snapshot == nil {
			continue
		}
		fn(msg.Snapshot)
	}
}
