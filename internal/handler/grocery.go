package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/basket/internal/fanout"
	"github.com/dukerupert/basket/internal/model"
	"github.com/dukerupert/basket/internal/store"
	"github.com/dukerupert/basket/internal/websocket"
)

const entityItem = "grocery_item"

type GroceryHandler struct {
	groups *store.GroupStore
	items  *store.GroceryStore
	broker fanout.Broker
	logger *slog.Logger
}

func NewGroceryHandler(gs *store.GroupStore, is *store.GroceryStore, broker fanout.Broker, logger *slog.Logger) *GroceryHandler {
	return &GroceryHandler{groups: gs, items: is, broker: broker, logger: logger}
}

// Snapshot returns the group's live list, or nil if the group does not exist.
func (h *GroceryHandler) Snapshot(group string) (*model.Snapshot, error) {
	return h.items.Snapshot(group)
}

// publish pushes a fresh snapshot to every subscriber of the group. Failures
// are logged; subscribers catch up on the next change. Concurrent publishes
// may arrive out of order; subscribers keep the highest Version.
func (h *GroceryHandler) publish(ctx context.Context, group, action, id string) {
	if h.broker == nil {
		return
	}
	snap, err := h.Snapshot(group)
	if err != nil {
		h.logger.Error("build snapshot", "group", group, "error", err)
		return
	}
	if snap == nil {
		return
	}
	if err := h.broker.Publish(ctx, group, websocket.NewMessage(entityItem, action, id, snap)); err != nil {
		h.logger.Error("publish snapshot", "group", group, "error", err)
	}
}

// requireGroup writes a 404 and returns false when the group is unknown.
func (h *GroceryHandler) requireGroup(w http.ResponseWriter, group string) bool {
	exists, err := h.groups.Exists(group)
	if err != nil {
		h.logger.Error("check group", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load group")
		return false
	}
	if !exists {
		writeError(w, http.StatusNotFound, "group not found")
		return false
	}
	return true
}

type createItemRequest struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (h *GroceryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)

	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = model.DefaultQuantity
	}

	if !h.requireGroup(w, group) {
		return
	}

	item, err := h.items.CreateItem(group, req.Name, req.Quantity)
	if err != nil {
		h.logger.Error("create item", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	h.publish(r.Context(), group, "created", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *GroceryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)

	snap, err := h.Snapshot(group)
	if err != nil {
		h.logger.Error("list items", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *GroceryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)
	id := r.PathValue("id")

	var req struct {
		Bought *bool `json:"bought"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Bought == nil {
		writeError(w, http.StatusBadRequest, "bought is required")
		return
	}

	item, err := h.items.SetBought(group, id, *req.Bought)
	if err != nil {
		h.logger.Error("update item", "group", group, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.publish(r.Context(), group, "updated", item.ID)
	writeJSON(w, http.StatusOK, item)
}

func (h *GroceryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)
	id := r.PathValue("id")

	existed, err := h.items.DeleteItem(group, id)
	if err != nil {
		h.logger.Error("delete item", "group", group, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.publish(r.Context(), group, "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
