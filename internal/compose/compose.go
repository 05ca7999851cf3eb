// Package compose builds the outbound emergency alert text from card
// fields, the best-known location, hotline data, and the user's section
// toggles. All functions are pure: the same inputs always produce the
// same message.
package compose

import (
	"strconv"
	"strings"

	"github.com/ruthwwikreddy/emergency/internal/hotline"
	"github.com/ruthwwikreddy/emergency/internal/models"
)

const bystanderLine = "This message was sent by a nearby helper who scanned the Emergency QR code and opened this website to notify you."

// Input is the full snapshot a message is rendered from. Coords and
// Approx are nil/empty when geolocation never resolved.
type Input struct {
	Card    models.Card
	Coords  *models.Coordinates
	Approx  string
	Options models.AlertOptions
	Helper  models.HelperIdentity
	Hotline hotline.Profile
	CardURL string
}

// Message renders the alert text. Each optional section is prefixed with
// a newline and appended only when its toggle is on and the underlying
// data is present, so absent sections leave no stray separators. The
// section order is fixed.
func Message(in Input) string {
	name := in.Card.FullName
	if name == "" {
		name = "the person"
	}

	var b strings.Builder
	b.WriteString("EMERGENCY ALERT: " + name + " appears to be in DANGER.")
	b.WriteString("\n" + bystanderLine)

	if !in.Helper.IsZero() {
		var parts []string
		for _, s := range []string{strings.TrimSpace(in.Helper.Name), strings.TrimSpace(in.Helper.Phone)} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) > 0 {
			b.WriteString("\nHelper: " + strings.Join(parts, " | "))
		}
	}

	if in.Options.IncludeLocation && in.Coords != nil {
		lat5 := strconv.FormatFloat(in.Coords.Latitude, 'f', 5, 64)
		lon5 := strconv.FormatFloat(in.Coords.Longitude, 'f', 5, 64)
		b.WriteString("\nCoordinates: " + lat5 + "," + lon5)
		// The maps link carries the raw, unrounded fix.
		lat := strconv.FormatFloat(in.Coords.Latitude, 'f', -1, 64)
		lon := strconv.FormatFloat(in.Coords.Longitude, 'f', -1, 64)
		b.WriteString("\nLocation: https://maps.google.com/?q=" + lat + "," + lon)
	}
	if in.Options.IncludeLocation && in.Approx != "" {
		b.WriteString("\nApprox: " + in.Approx)
	}

	if in.Options.IncludeMedical {
		if in.Card.BloodType != "" {
			b.WriteString("\nBlood: " + in.Card.BloodType)
		}
		if len(in.Card.Allergies) > 0 {
			b.WriteString("\nAllergies: " + strings.Join(in.Card.Allergies, ", "))
		}
		if len(in.Card.CurrentMedication) > 0 {
			b.WriteString("\nMeds: " + strings.Join(in.Card.CurrentMedication, ", "))
		}
	}

	if in.Options.IncludeHotline && in.Hotline.General != "" {
		b.WriteString("\nLocal Hotline: " + in.Hotline.General)
	}

	if in.Options.IncludeCard && in.CardURL != "" {
		b.WriteString("\nCard: " + in.CardURL)
	}

	return b.String()
}

// SegmentEstimate returns a rough SMS segment count for a message of the
// given length, assuming GSM-7: 160 chars for a single segment, 153 per
// segment once concatenated.
func SegmentEstimate(length int) int {
	if length <= 160 {
		return 1
	}
	return (length + 152) / 153
}
