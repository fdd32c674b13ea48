package repository

import (
	"context"
	"sync"
	"time"

	"seminar/internal/models"
)

// MemoryRoomCache is the in-process room listing cache used without Redis
// and as the failover target.
type MemoryRoomCache struct {
	mu        sync.RWMutex
	rooms     []*models.Room
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryRoomCache(ttl time.Duration) *MemoryRoomCache {
	return &MemoryRoomCache{ttl: ttl, now: time.Now}
}

func (c *MemoryRoomCache) GetRooms(_ context.Context) ([]*models.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.rooms == nil || !c.now().Before(c.expiresAt) {
		return nil, nil
	}
	return append([]*models.Room(nil), c.rooms...), nil
}

func (c *MemoryRoomCache) SetRooms(_ context.Context, rooms []*models.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rooms == nil {
		rooms = []*models.Room{}
	}
	c.rooms = append([]*models.Room{}, rooms...)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryRoomCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rooms = nil
	return nil
}
