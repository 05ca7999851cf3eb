package config

import (
	"os"
	"strings"
)

type Config struct {
	MongoURI        string
	PostgresURI     string
	RedisURI        string
	Port            string
	BaseURL         string   // Public origin card links are built from (e.g. https://cards.example.com)
	AllowedOrigins  []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)
	HomeCountry     string   // Initial hotline guess before any geolocation completes
	GeocodeEndpoint string   // Reverse-geocoding service; empty selects the built-in default
	Environment     string   // ENV: production, development, etc.
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))
	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")

	// CORS: allow multiple origins so a separately hosted frontend works
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		MongoURI:        getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/emergency")),
		PostgresURI:     getEnv("POSTGRES_URI", "postgres://localhost:5432/emergency?sslmode=disable"),
		RedisURI:        getEnv("REDIS_URI", "redis://localhost:6379/0"),
		Port:            getEnv("PORT", "8080"),
		BaseURL:         baseURL,
		AllowedOrigins:  allowedOrigins,
		HomeCountry:     strings.ToUpper(strings.TrimSpace(getEnv("HOME_COUNTRY", "IN"))),
		GeocodeEndpoint: getEnv("GEOCODE_ENDPOINT", ""),
		Environment:     env,
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
