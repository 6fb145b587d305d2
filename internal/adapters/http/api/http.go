// Package api serves the planner REST backend over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
)

// Dependencies required by HTTP handlers. Implemented by *backend.Store.
type Dependencies interface {
	Events(ctx context.Context) []model.Event
	Categories(ctx context.Context) []model.Category

	CreateEvent(ctx context.Context, in backend.NewEvent) (model.Event, error)
	UpdateEvent(ctx context.Context, id string, patch model.EventPatch) (model.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, in backend.NewCategory) (model.Category, error)
	UpdateCategory(ctx context.Context, id string, patch model.CategoryPatch) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) (int, error)
}

// Server wires HTTP routes for the planner API.
type Server struct {
	healthHandler     *HealthHandler
	eventsHandler     *EventsHandler
	categoriesHandler *CategoriesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		eventsHandler:     NewEventsHandler(deps, log),
		categoriesHandler: NewCategoriesHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)

	mux.HandleFunc("GET /events", MetricsMiddleware(s.eventsHandler.HandleList, "events"))
	mux.HandleFunc("POST /events", MetricsMiddleware(s.eventsHandler.HandleCreate, "events"))
	mux.HandleFunc("PATCH /events/{id}", MetricsMiddleware(s.eventsHandler.HandleUpdate, "event"))
	mux.HandleFunc("DELETE /events/{id}", MetricsMiddleware(s.eventsHandler.HandleDelete, "event"))

	mux.HandleFunc("GET /categories", MetricsMiddleware(s.categoriesHandler.HandleList, "categories"))
	mux.HandleFunc("POST /categories", MetricsMiddleware(s.categoriesHandler.HandleCreate, "categories"))
	mux.HandleFunc("PATCH /categories/{id}", MetricsMiddleware(s.categoriesHandler.HandleUpdate, "category"))
	mux.HandleFunc("DELETE /categories/{id}", MetricsMiddleware(s.categoriesHandler.HandleDelete, "category"))
}

// Handler returns the full route table wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return CORS(mux)
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps backend errors onto response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, backend.ErrEventNotFound), errors.Is(err, backend.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrPersist):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
