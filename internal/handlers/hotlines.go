package handlers

import (
	"net/http"

	"github.com/ruthwwikreddy/emergency/internal/hotline"
)

// HotlineResponse wraps the resolved profile for the card page.
type HotlineResponse struct {
	Success bool            `json:"success"`
	Hotline hotline.Profile `json:"hotline"`
}

// GetHotlines handles GET /api/hotlines?country=CC. Unknown or missing
// codes resolve to the default profile, so this endpoint cannot fail.
func GetHotlines(w http.ResponseWriter, r *http.Request) {
	profile := hotline.Resolve(r.URL.Query().Get("country"))
	writeJSON(w, http.StatusOK, HotlineResponse{Success: true, Hotline: profile})
}
