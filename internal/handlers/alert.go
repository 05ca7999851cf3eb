package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruthwwikreddy/emergency/internal/config"
	"github.com/ruthwwikreddy/emergency/internal/geo"
	"github.com/ruthwwikreddy/emergency/internal/models"
	"github.com/ruthwwikreddy/emergency/internal/services"
	"github.com/ruthwwikreddy/emergency/pkg/clientip"
)

var alertController *services.AlertController

// InitAlertController wires the alert workflow controller from the app
// config and registers the websocket hub for live session pushes.
func InitAlertController(cfg *config.Config) {
	alertController = services.NewAlertController(
		geo.NewResolver(cfg.GeocodeEndpoint),
		cfg.HomeCountry,
		cfg.BaseURL,
	)
	alertController.Notifier = alertHub
}

// SessionResponse wraps a session snapshot in the standard envelope.
type SessionResponse struct {
	Success bool                   `json:"success"`
	Session *services.AlertSession `json:"session"`
}

// OpenSessionRequest starts the alert workflow for a card. V4 is
// optional when the client has verified this card before.
type OpenSessionRequest struct {
	CardID   string `json:"cardId"`
	ClientID string `json:"clientId"`
	V4       string `json:"v4"`
	Locale   string `json:"locale"`
}

// OpenAlertSession handles POST /api/alert/sessions.
func OpenAlertSession(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := alertController.Open(r.Context(), services.OpenRequest{
		CardID:    req.CardID,
		ClientID:  req.ClientID,
		V4:        req.V4,
		LocaleTag: req.Locale,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{Success: true, Session: session})
}

// GetAlertSession handles GET /api/alert/sessions/{token}.
func GetAlertSession(w http.ResponseWriter, r *http.Request) {
	session, err := alertController.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// LocationRequest reports the device's geolocation outcome. Denied is
// one of "denied", "timeout", "unsupported" when no fix was obtained.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Denied    string   `json:"denied"`
	Locale    string   `json:"locale"`
}

// ReportLocation handles POST /api/alert/sessions/{token}/location.
func ReportLocation(w http.ResponseWriter, r *http.Request) {
	var req LocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report := services.LocationReport{Denied: req.Denied, LocaleTag: req.Locale}
	if req.Latitude != nil && req.Longitude != nil {
		report.Coords = &models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
		report.Denied = ""
	} else if report.Denied == "" {
		writeMessage(w, http.StatusBadRequest, "Either coordinates or a denial reason is required")
		return
	}

	session, err := alertController.ReportLocation(r.Context(), chi.URLParam(r, "token"), report)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// UpdateSessionRequest edits the togglable parts of the modal. Omitted
// fields are left untouched.
type UpdateSessionRequest struct {
	Options            *models.AlertOptions   `json:"options"`
	Helper             *models.HelperIdentity `json:"helper"`
	PrimaryContact     *string                `json:"primaryContact"`
	AdditionalContacts *string                `json:"additionalContacts"`
	AdvancedOpen       *bool                  `json:"advancedOpen"`
}

// UpdateAlertSession handles PUT /api/alert/sessions/{token}.
func UpdateAlertSession(w http.ResponseWriter, r *http.Request) {
	var req UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := alertController.Update(r.Context(), chi.URLParam(r, "token"), services.UpdateRequest{
		Options:            req.Options,
		Helper:             req.Helper,
		PrimaryContact:     req.PrimaryContact,
		AdditionalContacts: req.AdditionalContacts,
		AdvancedOpen:       req.AdvancedOpen,
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Success: true, Session: session})
}

// DispatchAlertRequest asks for deep links for one channel.
type DispatchAlertRequest struct {
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Message     string `json:"message"`
	Subject     string `json:"subject"`
}

// DispatchResponse carries the channel actions for the client to fire.
type DispatchResponse struct {
	Success bool                     `json:"success"`
	Result  *services.DispatchResult `json:"result"`
}

// DispatchAlert handles POST /api/alert/sessions/{token}/dispatch.
func DispatchAlert(w http.ResponseWriter, r *http.Request) {
	var req DispatchAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := alertController.Dispatch(r.Context(), chi.URLParam(r, "token"), services.DispatchRequest{
		Channel:     req.Channel,
		Destination: req.Destination,
		Message:     req.Message,
		Subject:     req.Subject,
		UserAgent:   r.UserAgent(),
		IPAddress:   clientip.RealClientIP(r),
	})
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DispatchResponse{Success: true, Result: result})
}

// CloseAlertSession handles DELETE /api/alert/sessions/{token}.
func CloseAlertSession(w http.ResponseWriter, r *http.Request) {
	if err := alertController.Close(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Alert session closed")
}
