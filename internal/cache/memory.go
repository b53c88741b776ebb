package cache

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const memoryCleanupInterval = 10 * time.Minute

// Memory is a process-local Store backed by go-cache. Entries do not survive
// restarts and are not shared between instances.
type Memory struct {
	cache *gocache.Cache
	log   *slog.Logger
}

func NewMemory(logger *slog.Logger) *Memory {
	return &Memory{
		cache: gocache.New(gocache.NoExpiration, memoryCleanupInterval),
		log:   logger,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := m.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	return v.([]byte), true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := checkTTL(ttl); err != nil {
		return err
	}
	m.cache.Set(key, value, ttl)
	return nil
}

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}
