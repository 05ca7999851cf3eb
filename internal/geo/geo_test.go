package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruthwwikreddy/emergency/internal/models"
)

func TestLocaleCountry(t *testing.T) {
	assert.Equal(t, "IN", LocaleCountry("en-IN"))
	assert.Equal(t, "US", LocaleCountry("en-US"))
	assert.Equal(t, "GB", LocaleCountry("en-gb"))
	assert.Equal(t, "BR", LocaleCountry("pt-BR"))
	assert.Equal(t, "", LocaleCountry("en"))
	assert.Equal(t, "", LocaleCountry(""))
	assert.Equal(t, "", LocaleCountry("zh-Hans"))
}

func TestResolveCountry_GeocodeWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "19.076", r.URL.Query().Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"countryCode":"us","countryName":"United States","city":"Seattle"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	coords := &models.Coordinates{Latitude: 19.076, Longitude: 72.8777}
	// Geocoded country takes priority over the locale, which says IN.
	code, approx := r.ResolveCountry(context.Background(), coords, "en-IN")
	assert.Equal(t, "US", code)
	assert.Equal(t, "Seattle, United States", approx)
}

func TestResolveCountry_LocaleFallbackWithoutCoords(t *testing.T) {
	r := NewResolver("http://127.0.0.1:0")
	code, approx := r.ResolveCountry(context.Background(), nil, "en-IN")
	assert.Equal(t, "IN", code)
	assert.Empty(t, approx)
}

func TestResolveCountry_GeocodeFailureDegradesToLocale(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	coords := &models.Coordinates{Latitude: 1, Longitude: 2}
	code, approx := r.ResolveCountry(context.Background(), coords, "en-AU")
	assert.Equal(t, "AU", code)
	assert.Empty(t, approx)

	// Unreachable endpoint behaves the same way: no error escapes.
	dead := NewResolver("http://127.0.0.1:0")
	code, _ = dead.ResolveCountry(context.Background(), coords, "en-AU")
	assert.Equal(t, "AU", code)
}

func TestReverseGeocode_MissingCountryKeepsApprox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"locality":"Mumbai","countryName":"India"}`))
	}))
	defer srv.Close()

	r := NewResolver(srv.URL)
	coords := &models.Coordinates{Latitude: 19, Longitude: 72}
	place := r.ReverseGeocode(context.Background(), *coords)
	require.NotNil(t, place)
	assert.Equal(t, "Mumbai, India", place.Approx())

	// Without a geocoded country code the locale decides, but the
	// approximate place from the geocoder is kept.
	code, approx := r.ResolveCountry(context.Background(), coords, "en-IN")
	assert.Equal(t, "IN", code)
	assert.Equal(t, "Mumbai, India", approx)
}

func TestPlaceApprox_PartsOmitted(t *testing.T) {
	assert.Equal(t, "India", Place{CountryName: "India"}.Approx())
	assert.Equal(t, "Mumbai", Place{City: "Mumbai"}.Approx())
	assert.Equal(t, "", Place{}.Approx())
	assert.Equal(t, "Maharashtra, India", Place{PrincipalSubdivision: "Maharashtra", CountryName: "India"}.Approx())
}
