package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ruthwwikreddy/emergency/internal/models"
)

// MessageResponse is the generic success/failure envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: status < 400, Message: message})
}

// writeWorkflowError maps the workflow error taxonomy onto HTTP statuses.
// Every branch produces a user-visible message; nothing here is fatal to
// the caller's page.
func writeWorkflowError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *models.ValidationError:
		writeMessage(w, http.StatusBadRequest, e.Message)
	case *models.PasscodeError:
		writeMessage(w, http.StatusUnauthorized, e.Message)
	case *models.NotFoundError:
		writeMessage(w, http.StatusNotFound, e.Message)
	case *models.RateLimitError:
		writeMessage(w, http.StatusTooManyRequests, e.Error())
	case *models.ServerError:
		writeMessage(w, http.StatusBadGateway, e.Message)
	case *models.NetworkError:
		writeMessage(w, http.StatusBadGateway, "Upstream request failed. Please try again.")
	default:
		writeMessage(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
