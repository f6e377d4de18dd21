// Package fanout delivers live-list messages to every subscriber of a group,
// whether they are connected to this process or to another replica.
package fanout

import (
	"context"

	ws "github.com/dukerupert/basket/internal/websocket"
)

// Broker publishes a message to all subscribers of a group.
type Broker interface {
	Publish(ctx context.Context, group string, msg ws.Message) error
}

// Hub is the in-process set of subscribers messages end up at. *ws.Hub
// implements it.
type Hub interface {
	Broadcast(group string, msg ws.Message)
	Deliver(group string, data []byte)
}

// Local delivers straight to the in-process hub. Used when the service runs
// as a single replica.
type Local struct {
	hub Hub
}

func NewLocal(hub Hub) *Local {
	return &Local{hub: hub}
}

func (l *Local) Publish(_ context.Context, group string, msg ws.Message) error {
	l.hub.Broadcast(group, msg)
	return nil
}
