package database

import (
	"context"
	"time"

	"github.com/pushp314/chatbridge-backend/internal/config"
	"github.com/pushp314/chatbridge-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "token_blacklist:"

func InitRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Warn().Err(err).Msg("Failed to connect to Redis, token revocation will be disabled")
	} else {
		logger.Info().Msg("Connected to Redis successfully")
	}
	return client
}

// TokenBlacklist stores revoked token ids until they would have expired anyway.
// A nil client turns it into a no-op.
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if b == nil || b.client == nil || jti == "" || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistPrefix+jti, 1, ttl).Err()
}

// IsRevoked fails open: a Redis outage must not lock every user out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) bool {
	if b == nil || b.client == nil || jti == "" {
		return false
	}
	n, err := b.client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		logger.Warn().Err(err).Msg("Token blacklist lookup failed")
		return false
	}
	return n > 0
}

// Status reports "ok", "error" or "not configured" for the health check
func (b *TokenBlacklist) Status(ctx context.Context) string {
	if b == nil || b.client == nil {
		return "not configured"
	}
	if err := b.client.Ping(ctx).Err(); err != nil {
		return "error"
	}
	return "ok"
}
