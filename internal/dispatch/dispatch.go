// Package dispatch formats composed alert messages into the deep links a
// device hands to its native SMS, WhatsApp, email, and dialer handlers.
// The builders are pure: they validate the destination, encode the
// message, and return actions for the client to open. Nothing here can
// confirm delivery.
package dispatch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ruthwwikreddy/emergency/internal/models"
)

// phonePattern accepts an optional leading + followed by 7-15 digits.
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidPhone reports whether s is an acceptable SMS/WhatsApp destination.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Platform selects between the two SMS deep-link conventions; mobile OS
// families disagree on the URI query syntax.
type Platform string

const (
	PlatformIOS   Platform = "ios"
	PlatformOther Platform = "other"
)

var iosPattern = regexp.MustCompile(`iPad|iPhone|iPod`)

// DetectPlatform classifies a user-agent string.
func DetectPlatform(userAgent string) Platform {
	if iosPattern.MatchString(userAgent) {
		return PlatformIOS
	}
	return PlatformOther
}

// Target tells the client how to fire an action's URI.
type Target string

const (
	// TargetNavigate replaces the current page (sms:, mailto:, tel:).
	TargetNavigate Target = "navigate"
	// TargetOpen opens a new browsing context (wa.me links).
	TargetOpen Target = "open"
)

// Action is one URI the device should open, optionally after a delay.
type Action struct {
	URI         string `json:"uri"`
	Target      Target `json:"target"`
	DelayMillis int    `json:"delayMillis,omitempty"`
}

// whatsAppStagger spaces multi-recipient opens so popup blockers do not
// swallow all but the first window.
const whatsAppStagger = 300

// encodeComponent percent-encodes s for use inside a URI query value,
// using %20 for spaces as message bodies require.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// SMS builds the sms: deep link for the given platform. iOS joins the
// body with an ampersand, everything else with a question mark.
func SMS(destination, message string, platform Platform) (Action, error) {
	num := stripSpaces(destination)
	if !ValidPhone(num) {
		return Action{}, &models.ValidationError{Field: "destination", Message: "enter a valid number with country code"}
	}
	sep := "?"
	if platform == PlatformIOS {
		sep = "&"
	}
	uri := "sms:" + encodeComponent(num) + sep + "body=" + encodeComponent(message)
	return Action{URI: uri, Target: TargetNavigate}, nil
}

// WhatsApp builds one wa.me open per recipient. The primary number must
// pass the phone check; additional numbers are normalized, de-duplicated
// in order, and each open is staggered by 300ms increments.
func WhatsApp(primary string, additional []string, message string) ([]Action, error) {
	p := stripSpaces(primary)
	if !ValidPhone(p) {
		return nil, &models.ValidationError{Field: "destination", Message: "enter a valid primary number with country code"}
	}

	seen := make(map[string]bool)
	var numbers []string
	for _, raw := range append([]string{p}, additional...) {
		n := stripSpaces(raw)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
	}

	text := encodeComponent(message)
	actions := make([]Action, 0, len(numbers))
	for i, n := range numbers {
		digits := keepDigits(n)
		actions = append(actions, Action{
			URI:         "https://wa.me/" + digits + "?text=" + text,
			Target:      TargetOpen,
			DelayMillis: whatsAppStagger * i,
		})
	}
	return actions, nil
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Email builds a mailto: link. Subject defaults to "Emergency Alert".
func Email(address, subject, message string) (Action, error) {
	addr := strings.TrimSpace(address)
	if addr == "" || !strings.Contains(addr, "@") {
		return Action{}, &models.ValidationError{Field: "destination", Message: "enter a valid email address"}
	}
	if subject == "" {
		subject = "Emergency Alert"
	}
	uri := "mailto:" + encodeComponent(addr) + "?subject=" + encodeComponent(subject) + "&body=" + encodeComponent(message)
	return Action{URI: uri, Target: TargetNavigate}, nil
}

// Tel builds the dialer link used by the call-hotline and call-primary
// buttons.
func Tel(number string) (Action, error) {
	num := stripSpaces(number)
	if num == "" {
		return Action{}, &models.ValidationError{Field: "destination", Message: "no number to call"}
	}
	return Action{URI: "tel:" + num, Target: TargetNavigate}, nil
}
