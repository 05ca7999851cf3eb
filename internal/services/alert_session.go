package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruthwwikreddy/emergency/internal/compose"
	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/dispatch"
	"github.com/ruthwwikreddy/emergency/internal/geo"
	"github.com/ruthwwikreddy/emergency/internal/hotline"
	"github.com/ruthwwikreddy/emergency/internal/models"
	"github.com/ruthwwikreddy/emergency/pkg/utils"
)

const (
	// AlertSessionKeyPrefix is the Redis key prefix for alert sessions
	AlertSessionKeyPrefix = "alert_session:"
	// AlertSessionTTL bounds an abandoned modal's server-side state.
	AlertSessionTTL = 30 * time.Minute
)

// GateState tracks the passcode gate for a session's card.
type GateState string

const (
	GateUnverified GateState = "unverified"
	GatePrompting  GateState = "prompting"
	GateVerified   GateState = "verified"
)

// AlertSession is the server-held state of one open alert modal. It is
// the only place the current hotline profile, last-known coordinates,
// options, and helper identity are mutated; everything else reads
// snapshots.
type AlertSession struct {
	Token              string                `json:"token"`
	ClientID           string                `json:"clientId"`
	Card               models.Card           `json:"card"`
	Gate               GateState             `json:"gate"`
	CountryCode        string                `json:"countryCode"`
	Hotline            hotline.Profile       `json:"hotline"`
	Coords             *models.Coordinates   `json:"coords,omitempty"`
	Approx             string                `json:"approx,omitempty"`
	LocationNote       string                `json:"locationNote"`
	Options            models.AlertOptions   `json:"options"`
	Helper             models.HelperIdentity `json:"helper"`
	PrimaryContact     string                `json:"primaryContact"`
	AdditionalContacts string                `json:"additionalContacts"`
	AdvancedOpen       bool                  `json:"advancedOpen"`
	Message            string                `json:"message"`
	SegmentEstimate    int                   `json:"segmentEstimate"`
	CreatedAt          time.Time             `json:"createdAt"`
}

// SessionNotifier receives push events for live modal updates. Nil
// notifiers are allowed; events are then dropped.
type SessionNotifier interface {
	SessionUpdated(session *AlertSession)
	SessionClosed(token string)
}

// AlertController orchestrates the alert workflow: the passcode gate,
// locale refinement, message recomposition, rate limiting, and channel
// dispatch.
type AlertController struct {
	Resolver    *geo.Resolver
	HomeCountry string
	BaseURL     string
	Notifier    SessionNotifier

	// FetchCard wraps card retrieval so tests can substitute the store.
	FetchCard func(ctx context.Context, uniqueID, v4 string) (*models.Card, error)
}

// NewAlertController wires the controller against the Mongo-backed card
// store.
func NewAlertController(resolver *geo.Resolver, homeCountry, baseURL string) *AlertController {
	if homeCountry == "" {
		homeCountry = "IN"
	}
	return &AlertController{
		Resolver:    resolver,
		HomeCountry: homeCountry,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		FetchCard:   GetCardByID,
	}
}

// OpenRequest opens an alert session for a card. V4 is optional: when
// blank, the cached passcode for the client is tried.
type OpenRequest struct {
	CardID    string
	ClientID  string
	V4        string
	LocaleTag string
}

// Open runs the passcode gate and, once verified, creates the session in
// its modal-open state: home-country hotlines as the immediate default,
// primary contact prefilled from the card, additional contacts cleared,
// advanced options collapsed, helper identity loaded from durable
// storage, and the message freshly composed.
func (c *AlertController) Open(ctx context.Context, req OpenRequest) (*AlertSession, error) {
	if req.CardID == "" {
		return nil, &models.ValidationError{Field: "cardId", Message: "card id is required"}
	}
	if req.ClientID == "" {
		req.ClientID = uuid.NewString()
	}

	v4 := strings.TrimSpace(req.V4)
	if v4 != "" && !utils.ValidPasscode(v4) {
		// Rejected locally; the prompt stays open and nothing is fetched.
		return nil, &models.ValidationError{Field: "v4", Message: "Enter exactly 4 digits"}
	}
	if v4 == "" {
		cached, ok := CachedPasscode(ctx, req.ClientID, req.CardID)
		if !ok {
			return nil, &models.PasscodeError{Message: "passcode required"}
		}
		v4 = cached
	}

	card, err := c.FetchCard(ctx, req.CardID, v4)
	if err != nil {
		if _, ok := err.(*models.NotFoundError); ok {
			// Passcode-shaped failure: evict and send the user back to
			// the prompt.
			if evictErr := EvictPasscode(ctx, req.ClientID, req.CardID); evictErr != nil {
				log.Printf("evict passcode for %s: %v", req.CardID, evictErr)
			}
			return nil, &models.PasscodeError{Message: "Incorrect or missing passcode. Please try again."}
		}
		// Generic failures leave the cache intact.
		return nil, err
	}

	// Verified lookup is the only writer of the passcode cache.
	if err := CachePasscode(ctx, req.ClientID, req.CardID, v4); err != nil {
		log.Printf("cache passcode for %s: %v", req.CardID, err)
	}

	country := c.HomeCountry
	session := &AlertSession{
		Token:           uuid.NewString(),
		ClientID:        req.ClientID,
		Card:            *card,
		Gate:            GateVerified,
		CountryCode:     country,
		Hotline:         hotline.Resolve(country),
		LocationNote:    "Location permission may improve routing.",
		Options:         models.DefaultAlertOptions(),
		Helper:          LoadHelperIdentity(ctx, req.ClientID),
		PrimaryContact:  stripSpaces(card.EmergencyContactNumber),
		AdvancedOpen:    false,
		CreatedAt:       time.Now().UTC(),
	}
	c.recompose(session)

	if err := saveAlertSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// LocationReport carries the device's geolocation outcome. Either Coords
// is set (a successful fix) or Denied explains why there is none.
type LocationReport struct {
	Coords    *models.Coordinates
	Denied    string // "denied", "timeout", "unsupported", or empty
	LocaleTag string
}

// ReportLocation refines the session with the geolocation outcome. A
// report for a session that no longer exists is ignored with a
// NotFoundError, which is the stale-response guard: the modal is gone,
// nothing to update.
func (c *AlertController) ReportLocation(ctx context.Context, token string, report LocationReport) (*AlertSession, error) {
	session, err := loadAlertSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if report.Coords == nil {
		// Denied/timeout/unsupported: fall back to the locale-derived
		// country and leave coordinates unset.
		country := geo.LocaleCountry(report.LocaleTag)
		if country == "" {
			country = c.HomeCountry
		}
		session.CountryCode = country
		session.Hotline = hotline.Resolve(country)
		session.Coords = nil
		session.Approx = ""
		session.LocationNote = "Location access denied. Using default country hotlines."
	} else {
		country, approx := c.Resolver.ResolveCountry(ctx, report.Coords, report.LocaleTag)
		if country == "" {
			country = c.HomeCountry
		}
		// Coordinates and the approximate place are set together.
		session.CountryCode = country
		session.Hotline = hotline.Resolve(country)
		session.Coords = report.Coords
		session.Approx = approx
		if approx != "" {
			session.LocationNote = "Approximate location: " + approx
		} else {
			session.LocationNote = "Location permission may improve routing."
		}
	}

	c.recompose(session)
	if err := saveAlertSession(ctx, session); err != nil {
		return nil, err
	}
	c.notifyUpdated(session)
	return session, nil
}

// UpdateRequest mutates the togglable parts of the modal. Nil fields are
// left untouched.
type UpdateRequest struct {
	Options            *models.AlertOptions
	Helper             *models.HelperIdentity
	PrimaryContact     *string
	AdditionalContacts *string
	AdvancedOpen       *bool
}

// Update applies option/field edits and regenerates the message. The
// whole message is recomposed on every change; manual edits to the text
// are deliberately discarded, matching the always-fresh behavior of the
// card page.
func (c *AlertController) Update(ctx context.Context, token string, req UpdateRequest) (*AlertSession, error) {
	session, err := loadAlertSession(ctx, token)
	if err != nil {
		return nil, err
	}

	if req.Options != nil {
		session.Options = *req.Options
	}
	if req.Helper != nil {
		session.Helper = *req.Helper
		if err := SaveHelperIdentity(ctx, session.ClientID, *req.Helper); err != nil {
			log.Printf("persist helper identity: %v", err)
		}
	}
	if req.PrimaryContact != nil {
		session.PrimaryContact = stripSpaces(*req.PrimaryContact)
	}
	if req.AdditionalContacts != nil {
		session.AdditionalContacts = strings.TrimSpace(*req.AdditionalContacts)
	}
	if req.AdvancedOpen != nil {
		session.AdvancedOpen = *req.AdvancedOpen
	}

	c.recompose(session)
	if err := saveAlertSession(ctx, session); err != nil {
		return nil, err
	}
	c.notifyUpdated(session)
	return session, nil
}

// Channel names accepted by Dispatch.
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelCall     = "call"
)

// DispatchRequest asks for the composed message to be handed to a device
// channel. Message overrides the session's composed text when set.
type DispatchRequest struct {
	Channel     string
	Destination string
	Message     string
	Subject     string
	UserAgent   string
	IPAddress   string
}

// DispatchResult is what the client needs to fire the hand-off.
type DispatchResult struct {
	Actions []dispatch.Action `json:"actions"`
	Message string            `json:"message"`
}

// Dispatch validates the destination, enforces the shared cool-down, and
// builds the channel's deep links. Validation failures never consume the
// cool-down; once a dispatch is permitted the message handed off is
// frozen — later location updates affect only future compositions.
func (c *AlertController) Dispatch(ctx context.Context, token string, req DispatchRequest) (*DispatchResult, error) {
	session, err := loadAlertSession(ctx, token)
	if err != nil {
		return nil, err
	}

	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		msg = session.Message
	}

	var actions []dispatch.Action
	switch req.Channel {
	case ChannelSMS:
		dest := req.Destination
		if dest == "" {
			dest = session.PrimaryContact
		}
		a, err := dispatch.SMS(dest, msg, dispatch.DetectPlatform(req.UserAgent))
		if err != nil {
			return nil, err
		}
		actions = []dispatch.Action{a}
	case ChannelWhatsApp:
		dest := req.Destination
		if dest == "" {
			dest = session.PrimaryContact
		}
		additional := models.ParseList(session.AdditionalContacts)
		actions, err = dispatch.WhatsApp(dest, additional, msg)
		if err != nil {
			return nil, err
		}
	case ChannelEmail:
		a, err := dispatch.Email(req.Destination, req.Subject, msg)
		if err != nil {
			return nil, err
		}
		actions = []dispatch.Action{a}
	case ChannelCall:
		dest := req.Destination
		if dest == "" {
			dest = session.Hotline.General
		}
		a, err := dispatch.Tel(dest)
		if err != nil {
			return nil, err
		}
		// Calls bypass the cool-down: dialing is not a message send.
		return &DispatchResult{Actions: []dispatch.Action{a}, Message: msg}, nil
	default:
		return nil, &models.ValidationError{Field: "channel", Message: "unknown dispatch channel"}
	}

	if err := AllowDispatch(ctx, token); err != nil {
		return nil, err
	}

	if err := RecordDispatch(ctx, session.Card.UniqueID, token, req.Channel, len(actions), req.IPAddress); err != nil {
		log.Printf("record dispatch: %v", err)
	}

	return &DispatchResult{Actions: actions, Message: msg}, nil
}

// Get returns the session snapshot.
func (c *AlertController) Get(ctx context.Context, token string) (*AlertSession, error) {
	return loadAlertSession(ctx, token)
}

// Close drops the session state and tells any live listeners to detach.
func (c *AlertController) Close(ctx context.Context, token string) error {
	if err := database.RedisClient.Del(ctx, AlertSessionKeyPrefix+token).Err(); err != nil {
		return err
	}
	if c.Notifier != nil {
		c.Notifier.SessionClosed(token)
	}
	return nil
}

// recompose regenerates the message from the session snapshot. Calling
// it twice with the same state yields the same string.
func (c *AlertController) recompose(session *AlertSession) {
	session.Message = compose.Message(compose.Input{
		Card:    session.Card,
		Coords:  session.Coords,
		Approx:  session.Approx,
		Options: session.Options,
		Helper:  session.Helper,
		Hotline: session.Hotline,
		CardURL: c.cardURL(session.Card.UniqueID),
	})
	session.SegmentEstimate = compose.SegmentEstimate(len(session.Message))
}

func (c *AlertController) cardURL(uniqueID string) string {
	if c.BaseURL == "" {
		return ""
	}
	return c.BaseURL + "/" + uniqueID
}

func (c *AlertController) notifyUpdated(session *AlertSession) {
	if c.Notifier != nil {
		c.Notifier.SessionUpdated(session)
	}
}

func saveAlertSession(ctx context.Context, session *AlertSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, AlertSessionKeyPrefix+session.Token, data, AlertSessionTTL).Err()
}

func loadAlertSession(ctx context.Context, token string) (*AlertSession, error) {
	val, err := database.RedisClient.Get(ctx, AlertSessionKeyPrefix+token).Result()
	if err != nil {
		return nil, &models.NotFoundError{Message: "alert session not found"}
	}
	var session AlertSession
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
