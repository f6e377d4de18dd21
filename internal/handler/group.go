package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/dukerupert/basket/internal/store"
)

var codeRegexp = regexp.MustCompile(`^[0-9A-Z]{6}$`)

type GroupHandler struct {
	groups *store.GroupStore
	logger *slog.Logger
}

func NewGroupHandler(gs *store.GroupStore, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{groups: gs, logger: logger}
}

type createGroupRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	DeviceID string `json:"device_id"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Code = NormalizeCode(req.Code)
	req.Name = strings.TrimSpace(req.Name)
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if !codeRegexp.MatchString(req.Code) {
		writeError(w, http.StatusBadRequest, "code must be 6 characters of A-Z or 0-9")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	g, err := h.groups.Create(req.Code, req.Name, req.DeviceID)
	if errors.Is(err, store.ErrCodeTaken) {
		writeError(w, http.StatusConflict, "group code already in use")
		return
	}
	if err != nil {
		h.logger.Error("create group", "code", req.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	h.logger.Info("group created", "code", g.Code)
	writeJSON(w, http.StatusCreated, g)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := groupCode(r)

	g, err := h.groups.GetByCode(code)
	if err != nil {
		h.logger.Error("get group", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get group")
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	code := groupCode(r)

	var req struct {
		DeviceID string `json:"device_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	g, err := h.groups.AddMember(code, req.DeviceID)
	if err != nil {
		h.logger.Error("add member", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	code := groupCode(r)
	deviceID := strings.TrimSpace(r.PathValue("device_id"))

	g, err := h.groups.RemoveMember(code, deviceID)
	if err != nil {
		h.logger.Error("remove member", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
