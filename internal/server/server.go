package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/dailyboard/internal/handler"
	"github.com/dukerupert/dailyboard/internal/middleware"
	"github.com/dukerupert/dailyboard/internal/tracker"
	ws "github.com/dukerupert/dailyboard/internal/websocket"
)

type Server struct {
	hub         *ws.Hub
	groupH      *handler.GroupHandler
	todoH       *handler.TodoHandler
	characterH  *handler.CharacterHandler
	settingsH   *handler.SettingsHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the handlers. searchLimit caps roster lookups per client IP per
// minute; zero disables the limit.
func New(svc *tracker.Service, hub *ws.Hub, searchLimit int, logger *slog.Logger) *Server {
	return &Server{
		hub:         hub,
		groupH:      handler.NewGroupHandler(svc, logger.With("component", "groups")),
		todoH:       handler.NewTodoHandler(svc, logger.With("component", "todos")),
		characterH:  handler.NewCharacterHandler(svc, logger.With("component", "characters")),
		settingsH:   handler.NewSettingsHandler(svc, logger.With("component", "settings")),
		rateLimiter: middleware.NewRateLimiter(searchLimit, time.Minute),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Character groups
	mux.HandleFunc("GET /api/groups", s.groupH.List)
	mux.HandleFunc("POST /api/groups", s.rateLimitedHandler(s.groupH.Search))
	mux.HandleFunc("PUT /api/groups/order", s.groupH.Reorder)
	mux.HandleFunc("GET /api/groups/{id}", s.groupH.Get)
	mux.HandleFunc("DELETE /api/groups/{id}", s.groupH.Delete)
	mux.HandleFunc("POST /api/groups/{id}/refresh", s.rateLimitedHandler(s.groupH.Refresh))
	mux.HandleFunc("PUT /api/groups/{id}/characters/order", s.groupH.ReorderCharacters)
	mux.HandleFunc("POST /api/groups/{id}/characters/{key}/move", s.groupH.MoveCharacter)
	mux.HandleFunc("GET /api/groups/{id}/expedition", s.groupH.Expedition)
	mux.HandleFunc("PUT /api/groups/{id}/expedition/{item_id}", s.groupH.SetExpeditionProgress)
	mux.HandleFunc("POST /api/groups/{id}/expedition/{item_id}/increment", s.groupH.IncrementExpeditionProgress)

	// Todo templates
	mux.HandleFunc("GET /api/todo-groups", s.todoH.ListGroups)
	mux.HandleFunc("POST /api/todo-groups", s.todoH.CreateGroup)
	mux.HandleFunc("PUT /api/todo-groups/order", s.todoH.ReorderGroups)
	mux.HandleFunc("PUT /api/todo-groups/{id}", s.todoH.RenameGroup)
	mux.HandleFunc("DELETE /api/todo-groups/{id}", s.todoH.DeleteGroup)
	mux.HandleFunc("POST /api/todo-groups/{id}/items", s.todoH.AddItem)
	mux.HandleFunc("PUT /api/todo-groups/{id}/items/order", s.todoH.ReorderItems)
	mux.HandleFunc("DELETE /api/todo-groups/{id}/items/{item_id}", s.todoH.DeleteItem)
	mux.HandleFunc("GET /api/expedition-todos", s.todoH.ListExpedition)
	mux.HandleFunc("POST /api/expedition-todos", s.todoH.AddExpedition)
	mux.HandleFunc("PUT /api/expedition-todos/order", s.todoH.ReorderExpedition)
	mux.HandleFunc("DELETE /api/expedition-todos/{id}", s.todoH.DeleteExpedition)

	// Per-character state
	mux.HandleFunc("GET /api/characters/{key}/todos", s.characterH.Todos)
	mux.HandleFunc("PUT /api/characters/{key}/selection", s.characterH.SetSelection)
	mux.HandleFunc("DELETE /api/characters/{key}/selection", s.characterH.ClearSelection)
	mux.HandleFunc("PUT /api/characters/{key}/completed/{group_id}/{item_id}", s.characterH.SetProgress)
	mux.HandleFunc("POST /api/characters/{key}/completed/{group_id}/{item_id}/increment", s.characterH.IncrementProgress)

	// Settings
	mux.HandleFunc("GET /api/settings/token", s.settingsH.GetToken)
	mux.HandleFunc("PUT /api/settings/token", s.settingsH.PutToken)
	mux.HandleFunc("DELETE /api/settings/token", s.settingsH.DeleteToken)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h).ServeHTTP
}
