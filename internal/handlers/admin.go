package handlers

import (
	"net/http"
	"strconv"

	"github.com/ruthwwikreddy/emergency/internal/middleware"
	"github.com/ruthwwikreddy/emergency/internal/services"
)

// DispatchLogResponse lists recent dispatch audit entries.
type DispatchLogResponse struct {
	Success bool                        `json:"success"`
	Entries []services.DispatchLogEntry `json:"entries"`
}

// GetDispatchLog handles GET /api/admin/dispatch-log?limit=N. The log is
// empty when no Postgres connection is configured.
func GetDispatchLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := services.ListDispatches(r.Context(), limit)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to load dispatch log")
		return
	}
	writeJSON(w, http.StatusOK, DispatchLogResponse{Success: true, Entries: entries})
}

// UnblockIP handles PUT /api/admin/unblock-ip?ip=x.x.x.x and clears the
// rate-limiter block for an address.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	ipAddress := r.URL.Query().Get("ip")
	if ipAddress == "" {
		writeMessage(w, http.StatusBadRequest, "IP address is required")
		return
	}

	if err := middleware.UnblockIP(ipAddress); err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to unblock IP: "+err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "IP address unblocked successfully")
}
