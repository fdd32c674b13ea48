package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"seminar/internal/config"
	"seminar/internal/models"

	"github.com/redis/go-redis/v9"
)

const availableRoomsKey = "seminar:rooms:available"

// RedisRoomCache keeps the public room listing in Redis as one JSON document.
type RedisRoomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a client from the redis config section.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisRoomCache(client *redis.Client, ttl time.Duration) *RedisRoomCache {
	return &RedisRoomCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRoomCache) GetRooms(ctx context.Context) ([]*models.Room, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	val, err := r.client.Get(ctx, availableRoomsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rooms from redis: %w", err)
	}

	var rooms []*models.Room
	if err := json.Unmarshal(val, &rooms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rooms: %w", err)
	}
	return rooms, nil
}

func (r *RedisRoomCache) SetRooms(ctx context.Context, rooms []*models.Room) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		return fmt.Errorf("failed to marshal rooms: %w", err)
	}

	if err := r.client.Set(ctx, availableRoomsKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set rooms in redis: %w", err)
	}
	return nil
}

func (r *RedisRoomCache) Invalidate(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, availableRoomsKey).Err(); err != nil {
		return fmt.Errorf("failed to delete rooms from redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}
