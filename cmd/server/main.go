package main

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/joho/godotenv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ruthwwikreddy/emergency/internal/config"
	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/handlers"
	"github.com/ruthwwikreddy/emergency/internal/middleware"
	"github.com/ruthwwikreddy/emergency/internal/routes"
	"github.com/ruthwwikreddy/emergency/internal/services"
)

func main() {
	// Load env
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}
	// Load configuration
	cfg := config.Load()

	// Connect to PostgreSQL (optional: only the dispatch audit log lives here)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Printf("⚠️  WARNING: PostgreSQL unavailable: %v", err)
		log.Println("   Dispatch audit logging is disabled for this run")
	} else {
		defer database.DisconnectPostgres()
		if err := database.InitPostgresTables(); err != nil {
			log.Printf("⚠️  WARNING: failed to initialize PostgreSQL tables: %v", err)
		} else {
			log.Println("✅ Dispatch audit log ready")
		}
	}

	// Connect to Redis
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Log connection attempt (without showing password)
	log.Printf("Connecting to MongoDB...")
	if cfg.MongoURI != "" {
		maskedURI := cfg.MongoURI
		if strings.Contains(maskedURI, "@") {
			parts := strings.Split(maskedURI, "@")
			if len(parts) > 0 && strings.Contains(parts[0], ":") {
				userPass := strings.Split(parts[0], ":")
				if len(userPass) >= 3 {
					maskedURI = strings.Replace(maskedURI, userPass[2], "***", 1)
				}
			}
		}
		log.Printf("MongoDB URI: %s", maskedURI)
	}

	// Connect to MongoDB
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	// Ensure MongoDB indexes for card lookups
	if err := services.EnsureCardIndexes(context.Background()); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB card indexes: %v", err)
	} else {
		log.Println("✅ MongoDB card indexes ensured")
	}

	// Wire the alert workflow controller (geocoder, hotlines, card links)
	handlers.InitAlertController(cfg)
	log.Printf("✅ Alert workflow ready (home country %s)", cfg.HomeCountry)

	// Setup router
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Client-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-Response-Time"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Production: security headers + per-IP global limiter; otherwise the
	// Redis counter limiter alone
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity() {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, per-IP rate limiting)")
	} else {
		r.Use(middleware.RateLimitMiddleware)
	}

	// Health check (no rate limit)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Setup routes
	routes.SetupRoutes(r)

	// Log registered routes for debugging
	log.Println("📋 Registered routes:")
	log.Println("  GET  /health")
	log.Println("  POST /api/cards")
	log.Println("  GET  /api/cards")
	log.Println("  GET  /api/cards/{id}")
	log.Println("  POST /api/cards/bulk")
	log.Println("  POST /api/cards/bulk-upload")
	log.Println("  GET  /api/hotlines")
	log.Println("  POST /api/alert/sessions")
	log.Println("  GET  /api/alert/sessions/{token}")
	log.Println("  POST /api/alert/sessions/{token}/location")
	log.Println("  PUT  /api/alert/sessions/{token}")
	log.Println("  POST /api/alert/sessions/{token}/dispatch")
	log.Println("  DELETE /api/alert/sessions/{token}")
	log.Println("  GET  /api/admin/dispatch-log")
	log.Println("  PUT  /api/admin/unblock-ip")
	log.Println("  GET  /ws/alerts")

	log.Printf("🚀 Emergency card backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
