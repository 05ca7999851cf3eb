package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/geo"
	"github.com/ruthwwikreddy/emergency/internal/models"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { database.RedisClient.Close() })
	return mr
}

func testCard() *models.Card {
	return &models.Card{
		FullName:               "Asha",
		UniqueID:               "abc1234",
		InsuranceStatus:        models.InsuranceValid,
		BloodType:              "O+",
		Allergies:              []string{"Penicillin"},
		CurrentMedication:      []string{},
		PreferredHospitals:     []string{},
		EmergencyContactNumber: "+91 98765 43210",
	}
}

// fakeFetcher stands in for the card store and counts lookups.
type fakeFetcher struct {
	card  *models.Card
	err   error
	calls int
}

func (f *fakeFetcher) fetch(ctx context.Context, uniqueID, v4 string) (*models.Card, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.card, nil
}

func newTestController(f *fakeFetcher) *AlertController {
	c := NewAlertController(geo.NewResolver("http://127.0.0.1:0"), "IN", "https://cards.example.com")
	c.FetchCard = f.fetch
	return c
}

func TestOpen_MalformedPasscodeRejectedLocally(t *testing.T) {
	setupRedis(t)
	fetcher := &fakeFetcher{card: testCard()}
	c := newTestController(fetcher)

	_, err := c.Open(context.Background(), OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "12a4"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	// No lookup fires for a syntactically invalid passcode.
	assert.Zero(t, fetcher.calls)
}

func TestOpen_NoPasscodeAndNoCachePrompts(t *testing.T) {
	setupRedis(t)
	fetcher := &fakeFetcher{card: testCard()}
	c := newTestController(fetcher)

	_, err := c.Open(context.Background(), OpenRequest{CardID: "abc1234", ClientID: "client-1"})
	var perr *models.PasscodeError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, fetcher.calls)
}

func TestOpen_VerifiedLookupCachesPasscode(t *testing.T) {
	setupRedis(t)
	fetcher := &fakeFetcher{card: testCard()}
	c := newTestController(fetcher)
	ctx := context.Background()

	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)
	assert.Equal(t, GateVerified, session.Gate)
	assert.Equal(t, 1, fetcher.calls)

	cached, ok := CachedPasscode(ctx, "client-1", "abc1234")
	require.True(t, ok)
	assert.Equal(t, "1234", cached)

	// A later open for the same client reuses the cached passcode.
	_, err = c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestOpen_NotFoundEvictsCache(t *testing.T) {
	setupRedis(t)
	fetcher := &fakeFetcher{card: testCard()}
	c := newTestController(fetcher)
	ctx := context.Background()

	_, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	fetcher.err = &models.NotFoundError{Message: "Card not found or passcode incorrect"}
	_, err = c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1"})
	var perr *models.PasscodeError
	require.ErrorAs(t, err, &perr)

	_, ok := CachedPasscode(ctx, "client-1", "abc1234")
	assert.False(t, ok, "passcode-shaped failure must evict the cached value")
}

func TestOpen_ServerErrorKeepsCache(t *testing.T) {
	setupRedis(t)
	fetcher := &fakeFetcher{card: testCard()}
	c := newTestController(fetcher)
	ctx := context.Background()

	_, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	fetcher.err = &models.ServerError{StatusCode: 503, Message: "upstream down"}
	_, err = c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1"})
	var serr *models.ServerError
	require.ErrorAs(t, err, &serr)

	_, ok := CachedPasscode(ctx, "client-1", "abc1234")
	assert.True(t, ok, "generic failures must not evict the passcode")
}

func TestOpen_ModalDefaults(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()
	require.NoError(t, SaveHelperIdentity(ctx, "client-1", models.HelperIdentity{Name: "Ravi", Phone: "+911112223334"}))

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	// Home country is the immediate default before any geolocation.
	assert.Equal(t, "IN", session.CountryCode)
	assert.Equal(t, "112", session.Hotline.General)
	assert.Nil(t, session.Coords)
	// Primary prefilled from the card with whitespace stripped.
	assert.Equal(t, "+919876543210", session.PrimaryContact)
	assert.Empty(t, session.AdditionalContacts)
	assert.False(t, session.AdvancedOpen)
	assert.Equal(t, models.DefaultAlertOptions(), session.Options)
	// Helper identity comes back from durable storage.
	assert.Equal(t, "Ravi", session.Helper.Name)
	assert.Contains(t, session.Message, "Helper: Ravi | +911112223334")
	assert.Contains(t, session.Message, "Card: https://cards.example.com/abc1234")
	assert.NotContains(t, session.Message, "Coordinates:")
}

func geocoderStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReportLocation_RefinesHotlineAndMessage(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	srv := geocoderStub(t, `{"countryCode":"IN","countryName":"India","city":"Mumbai"}`)
	c := newTestController(&fakeFetcher{card: testCard()})
	c.Resolver = geo.NewResolver(srv.URL)

	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	coords := &models.Coordinates{Latitude: 19.0760, Longitude: 72.8777}
	updated, err := c.ReportLocation(ctx, session.Token, LocationReport{Coords: coords, LocaleTag: "en-IN"})
	require.NoError(t, err)

	assert.Equal(t, "IN", updated.CountryCode)
	require.NotNil(t, updated.Coords)
	assert.Equal(t, "Mumbai, India", updated.Approx)
	assert.Equal(t, "Approximate location: Mumbai, India", updated.LocationNote)
	assert.Contains(t, updated.Message, "Coordinates: 19.07600,72.87770")
	assert.Contains(t, updated.Message, "https://maps.google.com/?q=19.076,72.8777")
	assert.Contains(t, updated.Message, "Approx: Mumbai, India")
}

func TestReportLocation_DeniedFallsBackToLocale(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	updated, err := c.ReportLocation(ctx, session.Token, LocationReport{Denied: "denied", LocaleTag: "en-GB"})
	require.NoError(t, err)
	assert.Equal(t, "GB", updated.CountryCode)
	assert.Equal(t, "999", updated.Hotline.General)
	assert.Nil(t, updated.Coords)
	assert.Empty(t, updated.Approx)
}

func TestReportLocation_StaleSessionIgnored(t *testing.T) {
	setupRedis(t)
	c := newTestController(&fakeFetcher{card: testCard()})

	_, err := c.ReportLocation(context.Background(), "no-such-token", LocationReport{
		Coords: &models.Coordinates{Latitude: 1, Longitude: 2},
	})
	var nerr *models.NotFoundError
	require.ErrorAs(t, err, &nerr)
}

func TestUpdate_TogglesRecompose(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)
	assert.Contains(t, session.Message, "Blood: O+")

	opts := session.Options
	opts.IncludeMedical = false
	updated, err := c.Update(ctx, session.Token, UpdateRequest{Options: &opts})
	require.NoError(t, err)
	assert.NotContains(t, updated.Message, "Blood: O+")
	assert.NotContains(t, updated.Message, "Allergies:")

	opts.IncludeMedical = true
	restored, err := c.Update(ctx, session.Token, UpdateRequest{Options: &opts})
	require.NoError(t, err)
	assert.Contains(t, restored.Message, "Blood: O+")
	assert.Contains(t, restored.Message, "Allergies: Penicillin")
}

func TestUpdate_HelperPersistsAcrossSessions(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	helper := models.HelperIdentity{Name: "Ravi"}
	_, err = c.Update(ctx, session.Token, UpdateRequest{Helper: &helper})
	require.NoError(t, err)

	assert.Equal(t, helper, LoadHelperIdentity(ctx, "client-1"))

	// A new modal for the same client opens prefilled.
	again, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1"})
	require.NoError(t, err)
	assert.Equal(t, "Ravi", again.Helper.Name)
}

func TestDispatch_CooldownWindow(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	req := DispatchRequest{Channel: ChannelSMS, UserAgent: "Android"}

	first, err := c.Dispatch(ctx, session.Token, req)
	require.NoError(t, err)
	require.Len(t, first.Actions, 1)
	assert.Contains(t, first.Actions[0].URI, "sms:")

	_, err = c.Dispatch(ctx, session.Token, req)
	var rerr *models.RateLimitError
	require.ErrorAs(t, err, &rerr)
	assert.Greater(t, rerr.RetryAfterSeconds, 0)

	mr.FastForward(DispatchCooldown)

	third, err := c.Dispatch(ctx, session.Token, req)
	require.NoError(t, err)
	assert.Len(t, third.Actions, 1)
}

func TestDispatch_ValidationDoesNotConsumeCooldown(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	_, err = c.Dispatch(ctx, session.Token, DispatchRequest{Channel: ChannelSMS, Destination: "12a4"})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)

	// The failed validation left the window untouched.
	_, err = c.Dispatch(ctx, session.Token, DispatchRequest{Channel: ChannelSMS})
	require.NoError(t, err)
}

func TestDispatch_WhatsAppUsesAdditionalContacts(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	extra := "+911112223334, +91 98765 43210"
	_, err = c.Update(ctx, session.Token, UpdateRequest{AdditionalContacts: &extra})
	require.NoError(t, err)

	res, err := c.Dispatch(ctx, session.Token, DispatchRequest{Channel: ChannelWhatsApp})
	require.NoError(t, err)
	// Primary plus one extra; the duplicate of the primary is dropped.
	require.Len(t, res.Actions, 2)
	assert.Contains(t, res.Actions[0].URI, "wa.me/919876543210")
	assert.Contains(t, res.Actions[1].URI, "wa.me/911112223334")
	assert.Equal(t, 300, res.Actions[1].DelayMillis)
}

func TestDispatch_FrozenMessageIgnoresLaterLocation(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	srv := geocoderStub(t, `{"countryCode":"IN","countryName":"India","city":"Mumbai"}`)
	c := newTestController(&fakeFetcher{card: testCard()})
	c.Resolver = geo.NewResolver(srv.URL)

	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	sent, err := c.Dispatch(ctx, session.Token, DispatchRequest{Channel: ChannelSMS})
	require.NoError(t, err)
	assert.NotContains(t, sent.Message, "Coordinates:")

	// A fix arriving after the hand-off updates the session, not the
	// already-dispatched message.
	_, err = c.ReportLocation(ctx, session.Token, LocationReport{
		Coords: &models.Coordinates{Latitude: 19.076, Longitude: 72.8777},
	})
	require.NoError(t, err)
	assert.NotContains(t, sent.Message, "Coordinates:")

	refreshed, err := c.Get(ctx, session.Token)
	require.NoError(t, err)
	assert.Contains(t, refreshed.Message, "Coordinates:")
}

func TestClose_DropsSession(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()

	c := newTestController(&fakeFetcher{card: testCard()})
	session, err := c.Open(ctx, OpenRequest{CardID: "abc1234", ClientID: "client-1", V4: "1234"})
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx, session.Token))

	_, err = c.Get(ctx, session.Token)
	var nerr *models.NotFoundError
	require.ErrorAs(t, err, &nerr)
}
