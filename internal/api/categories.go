package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zigav/inventar/internal/model"
	"github.com/zigav/inventar/internal/store"
)

// Pagination defaults. The limit has no upper bound.
const (
	defaultSkip  = 0
	defaultLimit = 100
)

// parsePagination reads skip/limit query parameters, clamping negatives
// and garbage to the defaults.
func parsePagination(r *http.Request) (skip, limit int) {
	skip, limit = defaultSkip, defaultLimit
	if s := r.URL.Query().Get("skip"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			skip = n
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			limit = n
		}
	}
	return skip, limit
}

// CategoriesHandler handles global category endpoints.
type CategoriesHandler struct {
	DB *sql.DB
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /categories/.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "category already exists")
			return
		}
		slog.Error("category creation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	jsonResponse(w, http.StatusCreated, category)
}

// List handles GET /categories/.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := parsePagination(r)

	categories, err := store.ListCategories(r.Context(), h.DB, skip, limit)
	if err != nil {
		slog.Error("category listing failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}
