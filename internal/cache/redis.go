package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Leonti1991/flightbooking/config"
	"github.com/Leonti1991/flightbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	seatMapTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, seatMapTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:     redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		seatMapTTL: seatMapTTL,
	}
}

func (c *RedisCache) GetSeatMap(ctx context.Context, flightID int64) (*domain.SeatMap, error) {
	data, err := c.client.Get(ctx, seatMapKey(flightID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var seatMap domain.SeatMap
	if err := json.Unmarshal(data, &seatMap); err != nil {
		return nil, err
	}
	return &seatMap, nil
}

func (c *RedisCache) SetSeatMap(ctx context.Context, seatMap *domain.SeatMap) error {
	payload, err := json.Marshal(seatMap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatMapKey(seatMap.FlightID), payload, c.seatMapTTL).Err()
}

// InvalidateSeatMap drops the cached view after any seat mutation. The
// database stays the source of truth; a stale cache entry only ever
// survives until the next mutation or TTL expiry.
func (c *RedisCache) InvalidateSeatMap(ctx context.Context, flightID int64) error {
	return c.client.Del(ctx, seatMapKey(flightID)).Err()
}

func seatMapKey(flightID int64) string {
	return fmt.Sprintf("cache:seatmap:flight:%d", flightID)
}
