package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:online:"

// RedisService backs rate limiting and online-presence tracking. Both are
// best-effort concerns; callers treat redis failures as soft.
type RedisService struct {
	client *redis.Client
}

func NewRedisService(client *redis.Client) *RedisService {
	return &RedisService{client: client}
}

// CheckRateLimit counts requests under key within the window and reports
// whether this one is still allowed.
func (s *RedisService) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr failed: %w", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire failed: %w", err)
		}
	}
	return count <= int64(limit), nil
}

// SetUserOnline records the user as connected. The TTL guards against
// entries orphaned by a crashed process; it is refreshed on reconnect.
func (s *RedisService) SetUserOnline(ctx context.Context, userID string) error {
	return s.client.Set(ctx, presenceKeyPrefix+userID, time.Now().Unix(), 24*time.Hour).Err()
}

func (s *RedisService) SetUserOffline(ctx context.Context, userID string) error {
	return s.client.Del(ctx, presenceKeyPrefix+userID).Err()
}

// IsUserOnline reports presence as recorded by this process group.
func (s *RedisService) IsUserOnline(ctx context.Context, userID string) (bool, error) {
	n, err := s.client.Exists(ctx, presenceKeyPrefix+userID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
