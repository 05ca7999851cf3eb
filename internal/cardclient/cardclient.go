// Package cardclient is the Go client for the card record API. It maps
// HTTP outcomes onto the workflow's semantic errors so callers can tell
// a wrong passcode from a broken backend, and never retries on its own.
package cardclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ruthwwikreddy/emergency/internal/models"
	"github.com/ruthwwikreddy/emergency/pkg/utils"
)

const defaultTimeout = 15 * time.Second

// Client fetches cards from a running record service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the record service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// FetchCard retrieves a card through the passcode gate. Outcomes:
// unresolved gate (malformed passcode) -> PasscodeError without any
// request; 400/404 -> NotFoundError, the signal to evict a cached
// passcode; other non-2xx -> ServerError; transport failure ->
// NetworkError.
func (c *Client) FetchCard(ctx context.Context, uniqueID, v4 string) (*models.Card, error) {
	if !utils.ValidPasscode(v4) {
		return nil, &models.PasscodeError{Message: "passcode required"}
	}

	u := fmt.Sprintf("%s/api/cards/%s?v4=%s", c.baseURL, url.PathEscape(uniqueID), url.QueryEscape(strings.TrimSpace(v4)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Err: err}
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusOK:
		var card models.Card
		if err := json.NewDecoder(res.Body).Decode(&card); err != nil {
			return nil, &models.NetworkError{Err: err}
		}
		return &card, nil
	case res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusNotFound:
		return nil, &models.NotFoundError{Message: "Card not found or passcode incorrect"}
	default:
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &models.ServerError{StatusCode: res.StatusCode, Message: strings.TrimSpace(string(body))}
	}
}
