package api

import (
	"net/http"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
)

type listEventsResponse struct {
	Events     []model.Event    `json:"events"`
	Categories []model.Category `json:"categories"`
}

type eventResponse struct {
	Message string      `json:"message"`
	Event   model.Event `json:"event"`
}

// EventsHandler handles the /events routes.
type EventsHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies, log logger.Logger) *EventsHandler {
	return &EventsHandler{deps: deps, log: log}
}

// HandleList handles GET /events. Categories ride along so a client can
// seed both stores from one call.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listEventsResponse{
		Events:     nonNil(h.deps.Events(r.Context())),
		Categories: nonNil(h.deps.Categories(r.Context())),
	})
}

// HandleCreate handles POST /events.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req backend.NewEvent
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := h.deps.CreateEvent(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create event", err)
		return
	}
	h.log.Debug(r.Context(), "event created", logger.String("id", e.ID), logger.String("date", e.Date.String()))
	writeJSON(w, http.StatusCreated, eventResponse{Message: "Event added successfully", Event: e})
}

// HandleUpdate handles PATCH /events/{id}.
func (h *EventsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.EventPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	e, err := h.deps.UpdateEvent(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, "update event", err)
		return
	}
	writeJSON(w, http.StatusOK, eventResponse{Message: "Event updated successfully", Event: e})
}

// HandleDelete handles DELETE /events/{id}.
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, "delete event", err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Event deleted successfully"})
}

func (h *EventsHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), op+" failed", logger.Error(err))
	}
	writeError(w, status, err)
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
