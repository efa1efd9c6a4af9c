package questionnaire

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisCompletionPublisher appends completion events to a Redis stream for
// downstream consumers (donor outreach, blood bank dashboards).
type RedisCompletionPublisher struct {
	c      *redis.Client
	stream string
}

func NewRedisCompletionPublisher(c *redis.Client, stream string) *RedisCompletionPublisher {
	return &RedisCompletionPublisher{c: c, stream: stream}
}

func (p *RedisCompletionPublisher) PublishCompleted(ctx context.Context, ev CompletionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode completion event: %w", err)
	}
	err = p.c.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"profile_id": ev.ProfileID.String(),
			"status":     ev.Status,
			"data":       string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("publish completion event: %w", err)
	}
	return nil
}

// NopCompletionPublisher drops events.
type NopCompletionPublisher struct{}

func (NopCompletionPublisher) PublishCompleted(context.Context, CompletionEvent) error { return nil }
