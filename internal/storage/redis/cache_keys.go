package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/auth"
)

const (
	RateLimitWindowTTL = 1 * time.Minute
)

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:ip:%s", clientIP)
}

func RevokedTokenKey(tokenID string) string {
	return fmt.Sprintf("revoked:jwt:%s", tokenID)
}

func (c *Cache) IncrementClientRateLimit(ctx context.Context, clientIP string) (int64, error) {
	return c.IncrementWithExpiry(ctx, RateLimitKey(clientIP), RateLimitWindowTTL)
}

var _ auth.Revoker = (*Cache)(nil)

// Revoke remembers a logged-out token id until the token would have expired anyway.
func (c *Cache) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.SetString(ctx, RevokedTokenKey(tokenID), "1", ttl)
}

func (c *Cache) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return c.Exists(ctx, RevokedTokenKey(tokenID))
}
