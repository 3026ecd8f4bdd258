package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zigav/inventar/internal/auth"
	"github.com/zigav/inventar/internal/store"
)

// UsersHandler handles user registration.
type UsersHandler struct {
	DB   *sql.DB
	Auth *auth.Service
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /users/.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email, username, and password required")
		return
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("password hashing failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Username, hash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			jsonError(w, http.StatusBadRequest, "email or username already registered")
			return
		}
		slog.Error("user creation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user registered", "user", user.Username)
	jsonResponse(w, http.StatusCreated, user)
}
