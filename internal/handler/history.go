package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/basket/internal/model"
	"github.com/dukerupert/basket/internal/store"
)

type HistoryHandler struct {
	groups  *store.GroupStore
	history *store.HistoryStore
	logger  *slog.Logger
}

func NewHistoryHandler(gs *store.GroupStore, hs *store.HistoryStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{groups: gs, history: hs, logger: logger}
}

func (h *HistoryHandler) requireGroup(w http.ResponseWriter, group string) bool {
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

func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)
	if !h.requireGroup(w, group) {
		return
	}

	records, err := h.history.List(group)
	if err != nil {
		h.logger.Error("list history", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type createHistoryRequest struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Bought   bool   `json:"bought"`
}

func (h *HistoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)

	var req createHistoryRequest
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

	rec, err := h.history.Create(group, req.ItemID, req.Name, req.Quantity, req.Bought)
	if err != nil {
		h.logger.Error("create history", "group", group, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create history record")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update only supports flipping deleted to true; history is otherwise
// append-only.
func (h *HistoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)
	id := r.PathValue("id")

	var req struct {
		Deleted *bool `json:"deleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Deleted == nil || !*req.Deleted {
		writeError(w, http.StatusBadRequest, "only deleted=true is supported")
		return
	}

	rec, err := h.history.MarkDeleted(group, id)
	if err != nil {
		h.logger.Error("mark history deleted", "group", group, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update history record")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "history record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	group := groupCode(r)
	id := r.PathValue("id")

	existed, err := h.history.Delete(group, id)
	if err != nil {
		h.logger.Error("delete history", "group", group, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete history record")
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "history record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
