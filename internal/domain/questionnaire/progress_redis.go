package questionnaire

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const progressKeyPrefix = "assessment:progress:"

// RedisProgressStore keeps progress as JSON with a sliding TTL, so abandoned
// sessions expire on their own.
type RedisProgressStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewRedisProgressStore(c *redis.Client, ttl time.Duration) *RedisProgressStore {
	return &RedisProgressStore{c: c, ttl: ttl}
}

func progressKey(sessionID string) string {
	return progressKeyPrefix + sessionID
}

func (s *RedisProgressStore) Get(ctx context.Context, sessionID string) (*Progress, error) {
	val, err := s.c.Get(ctx, progressKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	return &p, nil
}

func (s *RedisProgressStore) Save(ctx context.Context, p *Progress) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := s.c.Set(ctx, progressKey(p.SessionID), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *RedisProgressStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.c.Del(ctx, progressKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
