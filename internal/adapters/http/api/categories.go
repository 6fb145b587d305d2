package api

import (
	"net/http"

	"github.com/okian/planner/internal/adapters/backend"
	"github.com/okian/planner/internal/domain/model"
	"github.com/okian/planner/pkg/logger"
)

type listCategoriesResponse struct {
	Categories []model.Category `json:"categories"`
}

type categoryResponse struct {
	Message  string         `json:"message"`
	Category model.Category `json:"category"`
}

type deleteCategoryResponse struct {
	Message string `json:"message"`
	Cleared int    `json:"clearedEvents"`
}

// CategoriesHandler handles the /categories routes.
type CategoriesHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps Dependencies, log logger.Logger) *CategoriesHandler {
	return &CategoriesHandler{deps: deps, log: log}
}

// HandleList handles GET /categories.
func (h *CategoriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listCategoriesResponse{Categories: nonNil(h.deps.Categories(r.Context()))})
}

// HandleCreate handles POST /categories.
func (h *CategoriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req backend.NewCategory
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.deps.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{Message: "Category added successfully", Category: c})
}

// HandleUpdate handles PATCH /categories/{id}.
func (h *CategoriesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.CategoryPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := h.deps.UpdateCategory(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.fail(w, r, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, categoryResponse{Message: "Category updated successfully", Category: c})
}

// HandleDelete handles DELETE /categories/{id}. Events pointing at the
// category lose their reference.
func (h *CategoriesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.deps.DeleteCategory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, "delete category", err)
		return
	}
	if cleared > 0 {
		h.log.Info(r.Context(), "category delete cleared event references",
			logger.String("id", r.PathValue("id")), logger.Int("events", cleared))
	}
	writeJSON(w, http.StatusOK, deleteCategoryResponse{Message: "Category deleted successfully", Cleared: cleared})
}

func (h *CategoriesHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), op+" failed", logger.Error(err))
	}
	writeError(w, status, err)
}
