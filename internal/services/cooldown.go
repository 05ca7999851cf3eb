package services

import (
	"context"
	"time"

	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/models"
)

const (
	// CooldownKeyPrefix is the Redis key prefix for dispatch cool-downs
	CooldownKeyPrefix = "cooldown:"
	// DispatchCooldown is the shared wait between outbound sends for a
	// session, guarding against accidental double sends.
	DispatchCooldown = 10 * time.Second
)

// AllowDispatch starts the cool-down window for a session, or returns a
// RateLimitError when a send happened inside the window. A denied
// attempt does not reset the timer; only a permitted send starts it.
func AllowDispatch(ctx context.Context, sessionToken string) error {
	key := CooldownKeyPrefix + sessionToken

	ok, err := database.RedisClient.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), DispatchCooldown).Result()
	if err != nil {
		// If Redis fails, allow the send (fail open): an un-sent alert is
		// worse than a duplicate one.
		return nil
	}
	if ok {
		return nil
	}

	retry := int(DispatchCooldown.Seconds())
	if ttl, err := database.RedisClient.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		retry = int(ttl.Seconds() + 0.5)
	}
	return &models.RateLimitError{RetryAfterSeconds: retry}
}
