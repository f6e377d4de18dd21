package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/basket/internal/backup"
	"github.com/dukerupert/basket/internal/fanout"
	"github.com/dukerupert/basket/internal/handler"
	"github.com/dukerupert/basket/internal/middleware"
	"github.com/dukerupert/basket/internal/store"
	ws "github.com/dukerupert/basket/internal/websocket"
)

// Config holds the HTTP-facing knobs of the document service.
type Config struct {
	LookupLimit  int
	LookupWindow time.Duration
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	groupH      *handler.GroupHandler
	groceryH    *handler.GroceryHandler
	historyH    *handler.HistoryHandler
	rateLimiter *middleware.RateLimiter
	backup      *backup.Manager
	logger      *slog.Logger
}

// New wires stores and handlers. broker decides how snapshots reach
// subscribers; pass fanout.NewLocal(hub) for a single replica.
func New(db *sql.DB, hub *ws.Hub, broker fanout.Broker, cfg Config, logger *slog.Logger) *Server {
	if cfg.LookupLimit <= 0 {
		cfg.LookupLimit = 20
	}
	if cfg.LookupWindow <= 0 {
		cfg.LookupWindow = time.Minute
	}

	groupStore := store.NewGroupStore(db)
	groceryStore := store.NewGroceryStore(db)
	historyStore := store.NewHistoryStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		groupH:      handler.NewGroupHandler(groupStore, logger.With("component", "group")),
		groceryH:    handler.NewGroceryHandler(groupStore, groceryStore, broker, logger.With("component", "grocery")),
		historyH:    handler.NewHistoryHandler(groupStore, historyStore, logger.With("component", "history")),
		rateLimiter: middleware.NewRateLimiter(cfg.LookupLimit, cfg.LookupWindow),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// SetBackup makes the backup manager's status visible on /health.
func (s *Server) SetBackup(m *backup.Manager) {
	s.backup = m
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Groups
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.Handle("GET /api/groups/{code}", s.rateLimited(s.groupH.Get))
	mux.Handle("POST /api/groups/{code}/members", s.rateLimited(s.groupH.AddMember))
	mux.HandleFunc("DELETE /api/groups/{code}/members/{device_id}", s.groupH.RemoveMember)

	// Live list
	mux.HandleFunc("GET /api/groups/{code}/items", s.groceryH.ListItems)
	mux.HandleFunc("POST /api/groups/{code}/items", s.groceryH.CreateItem)
	mux.HandleFunc("PATCH /api/groups/{code}/items/{id}", s.groceryH.UpdateItem)
	mux.HandleFunc("DELETE /api/groups/{code}/items/{id}", s.groceryH.DeleteItem)
	mux.HandleFunc("GET /api/groups/{code}/items/ws", ws.HandleWebSocket(s.hub, s.groceryH, s.logger.With("component", "websocket")))

	// History
	mux.HandleFunc("GET /api/groups/{code}/history", s.historyH.List)
	mux.HandleFunc("POST /api/groups/{code}/history", s.historyH.Create)
	mux.HandleFunc("PATCH /api/groups/{code}/history/{id}", s.historyH.Update)
	mux.HandleFunc("DELETE /api/groups/{code}/history/{id}", s.historyH.Delete)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	body := map[string]any{
		"status":      status,
		"subscribers": s.hub.ClientCount(),
	}
	if s.backup != nil {
		body["backup"] = s.backup.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter)(h)
}
