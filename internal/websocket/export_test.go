package websocket

// GroupClientCount returns the number of clients subscribed to one group.
func (h *Hub) GroupClientCount(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}
