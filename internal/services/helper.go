package services

import (
	"context"
	"encoding/json"

	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/models"
)

// HelperKeyPrefix is the Redis key prefix for persisted helper identities
const HelperKeyPrefix = "helper:"

// SaveHelperIdentity persists the bystander's name/phone for a client so
// the next alert modal opens prefilled. No TTL: identity survives across
// sessions until overwritten.
func SaveHelperIdentity(ctx context.Context, clientID string, h models.HelperIdentity) error {
	if h.IsZero() {
		return database.RedisClient.Del(ctx, HelperKeyPrefix+clientID).Err()
	}
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return database.RedisClient.Set(ctx, HelperKeyPrefix+clientID, data, 0).Err()
}

// LoadHelperIdentity returns the persisted identity for a client, or the
// zero value when none was saved.
func LoadHelperIdentity(ctx context.Context, clientID string) models.HelperIdentity {
	var h models.HelperIdentity
	val, err := database.RedisClient.Get(ctx, HelperKeyPrefix+clientID).Result()
	if err != nil {
		return h
	}
	if err := json.Unmarshal([]byte(val), &h); err != nil {
		return models.HelperIdentity{}
	}
	return h
}
