package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ruthwwikreddy/emergency/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Card routes
	r.Post("/api/cards", handlers.CreateCard)
	r.Get("/api/cards", handlers.GetCards)
	r.Get("/api/cards/{id}", handlers.GetCardByID)
	r.Post("/api/cards/bulk", handlers.BulkCreateCards)
	r.Post("/api/cards/bulk-upload", handlers.BulkUploadCards)

	// Hotline directory
	r.Get("/api/hotlines", handlers.GetHotlines)

	// Alert workflow routes
	r.Post("/api/alert/sessions", handlers.OpenAlertSession)
	r.Get("/api/alert/sessions/{token}", handlers.GetAlertSession)
	r.Post("/api/alert/sessions/{token}/location", handlers.ReportLocation)
	r.Put("/api/alert/sessions/{token}", handlers.UpdateAlertSession)
	r.Post("/api/alert/sessions/{token}/dispatch", handlers.DispatchAlert)
	r.Delete("/api/alert/sessions/{token}", handlers.CloseAlertSession)

	// Admin routes
	r.Get("/api/admin/dispatch-log", handlers.GetDispatchLog)
	r.Put("/api/admin/unblock-ip", handlers.UnblockIP)

	// WebSocket endpoint for live alert session updates
	r.Get("/ws/alerts", handlers.AlertWebSocket)
}
