// Package hotline maps ISO-3166 alpha-2 country codes to the emergency
// numbers shown on the card page and embedded in alert messages.
package hotline

import "strings"

// Profile is the set of emergency numbers for one country. General is
// always present; the remaining lines are shown only when set.
type Profile struct {
	CountryCode string `json:"countryCode"`
	Title       string `json:"title"`
	General     string `json:"general"`
	Police      string `json:"police,omitempty"`
	Ambulance   string `json:"ambulance,omitempty"`
	Fire        string `json:"fire,omitempty"`
	Women       string `json:"women,omitempty"`
	Child       string `json:"child,omitempty"`
}

var profiles = map[string]Profile{
	"IN": {Title: "Emergency Hotlines (India)", General: "112", Police: "100", Ambulance: "102 / 108", Fire: "101", Women: "1091", Child: "1098"},
	"US": {Title: "Emergency Hotlines (United States)", General: "911"},
	"CA": {Title: "Emergency Hotlines (Canada)", General: "911"},
	"GB": {Title: "Emergency Hotlines (United Kingdom)", General: "999"},
	"AU": {Title: "Emergency Hotlines (Australia)", General: "000"},
	"EU": {Title: "Emergency Hotlines (EU)", General: "112"},
}

// defaultProfile is used when the country is unknown or never resolved.
var defaultProfile = Profile{CountryCode: "DEFAULT", Title: "Emergency Hotlines", General: "112"}

// Resolve returns the profile for countryCode, or the default profile
// when the code is empty or unrecognized. Lookup is case-insensitive.
func Resolve(countryCode string) Profile {
	code := strings.ToUpper(strings.TrimSpace(countryCode))
	if p, ok := profiles[code]; ok {
		p.CountryCode = code
		return p
	}
	return defaultProfile
}

// Default returns the fallback profile directly.
func Default() Profile {
	return defaultProfile
}
