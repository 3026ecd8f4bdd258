package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/zigav/inventar/internal/store"
)

// StatsHandler serves aggregate inventory statistics for the caller.
type StatsHandler struct {
	DB *sql.DB
}

// Get handles GET /statistics/.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	stats, err := store.GetStatistics(r.Context(), h.DB, user.ID)
	if err != nil {
		slog.Error("statistics aggregation failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}

	jsonResponse(w, http.StatusOK, stats)
}
