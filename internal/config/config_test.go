package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg := Load()
	assert.Equal(t, "mongodb://localhost:27017/emergency", cfg.MongoURI)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURI)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "IN", cfg.HomeCountry)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("ENV", "Production")
	os.Setenv("BASE_URL", "https://cards.example.com/")
	os.Setenv("HOME_COUNTRY", "us")
	os.Setenv("ALLOWED_ORIGINS", "https://cards.example.com, https://www.example.com")
	defer os.Clearenv()

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	// Trailing slash is stripped so card URLs join cleanly.
	assert.Equal(t, "https://cards.example.com", cfg.BaseURL)
	assert.Equal(t, "US", cfg.HomeCountry)
	assert.Equal(t, []string{"https://cards.example.com", "https://www.example.com"}, cfg.AllowedOrigins)
}
