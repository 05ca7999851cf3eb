package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ruthwwikreddy/emergency/internal/database"
)

// DispatchLogEntry is one alert handed off to a device channel. The
// message body and recipient numbers are deliberately not recorded.
type DispatchLogEntry struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	CardID         string    `json:"card_id"`
	SessionToken   string    `json:"session_token"`
	Channel        string    `json:"channel"`
	RecipientCount int       `json:"recipient_count"`
	IPAddress      string    `json:"ip_address,omitempty"`
}

// RecordDispatch inserts an audit row for a permitted dispatch. A nil
// Postgres connection means auditing is disabled.
func RecordDispatch(ctx context.Context, cardID, sessionToken, channel string, recipients int, ipAddress string) error {
	if database.PostgresDB == nil {
		return nil
	}
	_, err := database.PostgresDB.ExecContext(ctx, `
		INSERT INTO dispatch_log (id, created_at, card_id, session_token, channel, recipient_count, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), time.Now().UTC(), cardID, sessionToken, channel, recipients, ipAddress)
	return err
}

// ListDispatches returns the most recent audit rows, newest first.
func ListDispatches(ctx context.Context, limit int) ([]DispatchLogEntry, error) {
	if database.PostgresDB == nil {
		return []DispatchLogEntry{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, created_at, card_id, session_token, channel, recipient_count, COALESCE(ip_address, '')
		FROM dispatch_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []DispatchLogEntry{}
	for rows.Next() {
		var e DispatchLogEntry
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.CardID, &e.SessionToken, &e.Channel, &e.RecipientCount, &e.IPAddress); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
