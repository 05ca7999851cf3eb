package services

import (
	"context"
	"time"

	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/pkg/utils"
)

const (
	// PasscodeKeyPrefix is the Redis key prefix for cached passcodes
	PasscodeKeyPrefix = "v4:"
	// PasscodeTTL bounds how long an accepted passcode survives for a
	// client, mirroring a browser session rather than durable storage.
	PasscodeTTL = 1 * time.Hour
)

func passcodeKey(clientID, cardID string) string {
	return PasscodeKeyPrefix + clientID + ":" + cardID
}

// CachePasscode stores an accepted passcode for a client+card pair.
// Only called after a successful gated lookup, so the cache never holds
// an unverified value.
func CachePasscode(ctx context.Context, clientID, cardID, v4 string) error {
	return database.RedisClient.Set(ctx, passcodeKey(clientID, cardID), v4, PasscodeTTL).Err()
}

// CachedPasscode returns the cached passcode for a client+card pair.
// Malformed cached values are treated as absent.
func CachedPasscode(ctx context.Context, clientID, cardID string) (string, bool) {
	val, err := database.RedisClient.Get(ctx, passcodeKey(clientID, cardID)).Result()
	if err != nil || !utils.ValidPasscode(val) {
		return "", false
	}
	return val, true
}

// EvictPasscode drops the cached value after a passcode-shaped failure
// (400/404 from retrieval), sending the client back to the prompt.
func EvictPasscode(ctx context.Context, clientID, cardID string) error {
	return database.RedisClient.Del(ctx, passcodeKey(clientID, cardID)).Err()
}
