package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "session:revoked:"

// Revocations tracks logged-out session tokens in Redis. Entries expire
// together with the token they shadow, so the denylist stays bounded.
type Revocations struct {
	client *redis.Client
}

// NewRevocations wraps a Redis client. A nil client disables revocation.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client}
}

// Revoke marks the token ID as revoked until the token would expire anyway.
func (r *Revocations) Revoke(ctx context.Context, claims *Claims) error {
	if r == nil || r.client == nil || claims == nil {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl).Err()
}

// IsRevoked reports whether the token ID has been revoked.
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if r == nil || r.client == nil || tokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
