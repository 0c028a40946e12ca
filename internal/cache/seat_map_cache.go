package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-airline-booking/internal/model"
	apperrors "go-airline-booking/pkg/app_errors"
)

// SeatMapCache 以 Redis 快取航班座位表，降低座位圖查詢對主儲存的壓力。
// 座位狀態或價格變更時由服務層失效。
type SeatMapCache interface {
	// Get 讀取快取的座位表；未命中回傳 ErrFlightNotFound
	Get(ctx context.Context, flightID string) ([]model.Seat, error)
	// Set 寫入座位表快取
	Set(ctx context.Context, flightID string, seats []model.Seat) error
	// Invalidate 使指定航班的快取失效
	Invalidate(ctx context.Context, flightID string) error
}

type SeatMapCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSeatMapCache(client *redis.Client, ttl time.Duration) SeatMapCache {
	return &SeatMapCacheImpl{client: client, ttl: ttl}
}

func (c *SeatMapCacheImpl) key(flightID string) string {
	return fmt.Sprintf("flight:%s:seatmap", flightID)
}

func (c *SeatMapCacheImpl) Get(ctx context.Context, flightID string) ([]model.Seat, error) {
	val, err := c.client.Get(ctx, c.key(flightID)).Bytes()
	if err == redis.Nil {
		return nil, apperrors.ErrFlightNotFound
	}
	if err != nil {
		return nil, err
	}

	var seats []model.Seat
	if err := json.Unmarshal(val, &seats); err != nil {
		return nil, fmt.Errorf("unmarshal seat map: %w", err)
	}
	return seats, nil
}

func (c *SeatMapCacheImpl) Set(ctx context.Context, flightID string, seats []model.Seat) error {
	body, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("marshal seat map: %w", err)
	}
	return c.client.Set(ctx, c.key(flightID), body, c.ttl).Err()
}

func (c *SeatMapCacheImpl) Invalidate(ctx context.Context, flightID string) error {
	return c.client.Del(ctx, c.key(flightID)).Err()
}
