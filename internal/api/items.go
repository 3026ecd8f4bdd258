package api

import (
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/zigav/inventar/internal/imaging"
	"github.com/zigav/inventar/internal/model"
	"github.com/zigav/inventar/internal/store"
	"github.com/zigav/inventar/internal/upload"
)

// maxUploadSize caps image uploads at 10 MB.
const maxUploadSize = 10 << 20

// ItemsHandler handles owner-scoped item CRUD and image upload.
type ItemsHandler struct {
	DB      *sql.DB
	Uploads *upload.Store
}

type itemRequest struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	CategoryID *int64 `json:"category_id"`
}

// Create handles POST /items/.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, user.ID, req.Name, req.Quantity, req.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "category does not exist")
			return
		}
		slog.Error("item creation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	jsonResponse(w, http.StatusCreated, item)
}

// List handles GET /items/ with category_id, search and skip/limit
// query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	filter := store.ItemFilter{Search: r.URL.Query().Get("search")}
	filter.Skip, filter.Limit = parsePagination(r)

	if s := r.URL.Query().Get("category_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = &id
	}

	items, err := store.ListItems(r.Context(), h.DB, user.ID, filter)
	if err != nil {
		slog.Error("item listing failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, user.ID, id)
	if err != nil {
		slog.Error("item lookup failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /items/{id}: a full replace of the mutable fields.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, user.ID, id, req.Name, req.Quantity, req.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "category does not exist")
			return
		}
		slog.Error("item update failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := store.DeleteItem(r.Context(), h.DB, user.ID, id)
	if err != nil {
		slog.Error("item deletion failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// UploadImage handles POST /items/{id}/upload-image. Ownership is checked
// before anything touches the content area; an item that is missing or
// belongs to someone else produces a 404 with no file written.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, user.ID, id)
	if err != nil {
		slog.Error("item lookup failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("reading upload failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	name, err := h.Uploads.Save(header.Filename, data)
	if err != nil {
		if errors.Is(err, upload.ErrBadFilename) {
			jsonError(w, http.StatusBadRequest, "invalid filename")
			return
		}
		slog.Error("saving upload failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save file")
		return
	}

	// Best effort: derive a thumbnail when the payload is a real image.
	// Non-image uploads are stored as-is without one.
	if imaging.IsImage(data) {
		if thumb, err := imaging.Thumbnail(data); err == nil {
			if _, err := h.Uploads.Save(thumbName(name), thumb); err != nil {
				slog.Warn("saving thumbnail failed", "file", name, "error", err)
			}
		} else {
			slog.Warn("thumbnail generation failed", "file", name, "error", err)
		}
	}

	ok, err := store.SetItemImage(r.Context(), h.DB, user.ID, id, name)
	if err != nil {
		slog.Error("linking image failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to link image")
		return
	}
	if !ok {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("image uploaded", "user", user.Username, "item", id, "file", name)
	jsonResponse(w, http.StatusOK, map[string]string{"filename": name})
}

// thumbName derives the thumbnail key for a stored filename.
func thumbName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + ".thumb.jpg"
}
