package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokedTokenKeyPrefix is the Redis key prefix for logged-out token ids
const RevokedTokenKeyPrefix = "revoked_token:"

// TokenDenylist remembers logged-out JWT ids until the token would have
// expired anyway. A nil client disables revocation.
type TokenDenylist struct {
	client *redis.Client
}

func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Revoke denylists the token id until expiresAt.
func (d *TokenDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if d == nil || d.client == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, RevokedTokenKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked checks whether the token id was logged out.
func (d *TokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.client == nil || jti == "" {
		return false, nil
	}
	count, err := d.client.Exists(ctx, RevokedTokenKeyPrefix+jti).Result()
	return count > 0, err
}
