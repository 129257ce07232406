package metrics

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	costKey     = "queryloom:total_cost"
	visitorsKey = "queryloom:visitor_count"
)

// RedisStore backs the counters with INCRBYFLOAT and INCR, which are atomic
// server-side. Use this when more than one API replica shares the totals.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) AddCost(ctx context.Context, delta float64) (float64, error) {
	total, err := s.client.IncrByFloat(ctx, costKey, delta).Result()
	if err != nil {
		return 0, fmt.Errorf("increment cost counter: %w", err)
	}
	return total, nil
}

func (s *RedisStore) IncrementVisitors(ctx context.Context) (int64, error) {
	count, err := s.client.Incr(ctx, visitorsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("increment visitor counter: %w", err)
	}
	return count, nil
}

func (s *RedisStore) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	cost, err := s.client.Get(ctx, costKey).Float64()
	if err != nil && err != redis.Nil {
		return Snapshot{}, fmt.Errorf("read cost counter: %w", err)
	}
	if err == nil {
		snap.TotalCost = cost
	}
	visitors, err := s.client.Get(ctx, visitorsKey).Int64()
	if err != nil && err != redis.Nil {
		return Snapshot{}, fmt.Errorf("read visitor counter: %w", err)
	}
	if err == nil {
		snap.VisitorCount = visitors
	}
	return snap, nil
}
