package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/zigav/inventar/internal/auth"
	"github.com/zigav/inventar/internal/store"
)

// TokenHandler exchanges credentials for bearer tokens.
type TokenHandler struct {
	DB   *sql.DB
	Auth *auth.Service
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /token. An unknown username, a wrong password and an
// inactive account all produce the identical generic 401 so usernames
// cannot be enumerated.
func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := store.GetUserByUsername(r.Context(), h.DB, req.Username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if user == nil || !user.IsActive || !h.Auth.VerifyPassword(req.Password, user.PasswordHash) {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		unauthorized(w, auth.ErrBadCredentials.Error())
		return
	}

	token, err := h.Auth.IssueToken(user.Username)
	if err != nil {
		slog.Error("token issuance failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("user logged in", "user", user.Username)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token})
}
