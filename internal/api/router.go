// Package api exposes the JSON HTTP surface: registration, token exchange,
// category and item CRUD, statistics and image upload.
package api

import (
	"database/sql"
	"net/http"

	"github.com/zigav/inventar/internal/auth"
	"github.com/zigav/inventar/internal/upload"
)

// NewRouter creates the router with all endpoints registered.
func NewRouter(db *sql.DB, authSvc *auth.Service, uploads *upload.Store) http.Handler {
	mux := http.NewServeMux()

	tokenHandler := &TokenHandler{DB: db, Auth: authSvc}
	usersHandler := &UsersHandler{DB: db, Auth: authSvc}
	categoriesHandler := &CategoriesHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db, Uploads: uploads}
	statsHandler := &StatsHandler{DB: db}

	authMW := AuthMiddleware(authSvc, db)

	// Public.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /token", tokenHandler.Token)
	mux.HandleFunc("POST /users/{$}", usersHandler.Register)
	mux.HandleFunc("POST /categories/{$}", categoriesHandler.Create)
	mux.HandleFunc("GET /categories/{$}", categoriesHandler.List)

	// Authenticated: everything below is scoped to the resolved user.
	mux.Handle("POST /items/{$}", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /items/{$}", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /items/{id}/upload-image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /statistics/{$}", authMW(http.HandlerFunc(statsHandler.Get)))

	return mux
}
