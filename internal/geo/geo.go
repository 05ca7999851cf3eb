// Package geo turns a device GPS fix into a best-guess country code and
// human-readable place name, falling back to the browser locale tag when
// reverse geocoding yields nothing.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ruthwwikreddy/emergency/internal/models"
)

// DefaultEndpoint is the BigDataCloud client-side reverse geocoder, which
// does not require an API key.
const DefaultEndpoint = "https://api.bigdatacloud.net/data/reverse-geocode-client"

const requestTimeout = 8 * time.Second

// Place is the decoded reverse-geocoding result.
type Place struct {
	CountryCode          string `json:"countryCode"`
	CountryName          string `json:"countryName"`
	City                 string `json:"city"`
	Locality             string `json:"locality"`
	PrincipalSubdivision string `json:"principalSubdivision"`
}

// Approx renders the place as "city/locality/subdivision, country",
// omitting whichever parts are blank.
func (p Place) Approx() string {
	local := p.City
	if local == "" {
		local = p.Locality
	}
	if local == "" {
		local = p.PrincipalSubdivision
	}
	var parts []string
	for _, s := range []string{local, p.CountryName} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Resolver resolves coordinates and locale tags to countries.
type Resolver struct {
	endpoint string
	client   *http.Client
}

// NewResolver returns a resolver against the given geocoding endpoint.
// An empty endpoint selects DefaultEndpoint.
func NewResolver(endpoint string) *Resolver {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Resolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// ReverseGeocode looks up coords against the geocoding service. Network
// and decode failures degrade to nil rather than propagating, so callers
// always proceed to the locale fallback.
func (r *Resolver) ReverseGeocode(ctx context.Context, coords models.Coordinates) *Place {
	url := fmt.Sprintf("%s?latitude=%v&longitude=%v&localityLanguage=en", r.endpoint, coords.Latitude, coords.Longitude)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/json")

	res, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil
	}

	var place Place
	if err := json.NewDecoder(res.Body).Decode(&place); err != nil {
		return nil
	}
	place.CountryCode = strings.ToUpper(strings.TrimSpace(place.CountryCode))
	return &place
}

// localeRegion matches the first two-letter region subtag of a BCP-47
// language tag, e.g. "en-IN" -> "IN".
var localeRegion = regexp.MustCompile(`(?i)-([A-Za-z]{2})\b`)

// LocaleCountry extracts the region subtag from a locale tag, or returns
// "" when the tag carries none.
func LocaleCountry(tag string) string {
	m := localeRegion.FindStringSubmatch(tag)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// ResolveCountry returns the best-guess country code and approximate
// place for a session: reverse geocoding wins when it yields a country
// code, then the locale tag, then "" so the caller applies its default.
// coords may be nil when geolocation was denied or unsupported.
func (r *Resolver) ResolveCountry(ctx context.Context, coords *models.Coordinates, localeTag string) (countryCode, approx string) {
	if coords != nil {
		if place := r.ReverseGeocode(ctx, *coords); place != nil {
			approx = place.Approx()
			if place.CountryCode != "" {
				return place.CountryCode, approx
			}
		}
	}
	return LocaleCountry(localeTag), approx
}
