// Package dedup remembers which transport updates were already routed so a
// redelivered update is acknowledged without being processed twice.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "artlix:update:"
)

// Checker reports whether an update was seen before.
type Checker interface {
	Seen(ctx context.Context, updateID int64) (bool, error)
}

// Setter is the subset of the redis client used by Guard.
type Setter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Guard marks updates in redis with SETNX and a TTL.
type Guard struct {
	client Setter
	ttl    time.Duration
	logger *zap.Logger
}

func NewGuard(client Setter, ttl time.Duration, logger *zap.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{client: client, ttl: ttl, logger: logger.Named("dedup")}
}

// NewRedisGuard connects to addr and verifies the connection with PING.
func NewRedisGuard(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*Guard, *redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info("Redis client connected", zap.String("addr", addr))
	return NewGuard(client, DefaultTTL, logger), client, nil
}

// Seen returns true when updateID was already marked. A redis failure lets
// the update through and is returned for logging.
func (g *Guard) Seen(ctx context.Context, updateID int64) (bool, error) {
	key := fmt.Sprintf("%s%d", keyPrefix, updateID)
	fresh, err := g.client.SetNX(ctx, key, 1, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark update: %w", err)
	}
	if !fresh {
		g.logger.Debug("Duplicate update", zap.Int64("update_id", updateID))
	}
	return !fresh, nil
}

// NopGuard never reports an update as seen.
type NopGuard struct{}

func (NopGuard) Seen(context.Context, int64) (bool, error) {
	return false, nil
}
