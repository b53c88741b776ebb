// Package cache provides the key/value stores used to keep aggregated
// station results for a short time. Every backend supports per-entry
// expiration and nothing else: there is no delete, compare-and-swap or
// enumeration.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
)

// ErrInvalidTTL is returned by Put for a ttl that is not positive.
var ErrInvalidTTL = errors.New("ttl must be positive")

// Store is a key/value store with per-entry expiration. An entry is not
// readable once its ttl has elapsed. Put rejects a non-positive ttl with
// ErrInvalidTTL.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func checkTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTTL, ttl)
	}
	return nil
}

// StoreCloser is a Store holding resources that must be released.
type StoreCloser interface {
	Store
	Close() error
}

// Config selects and configures a backend. Variables are read with the
// application prefix, e.g. FUELBOT_CACHE_BACKEND, FUELBOT_REDIS_ADDR.
type Config struct {
	Backend    string         `envconfig:"CACHE_BACKEND" default:"sqlite"`
	SQLitePath string         `envconfig:"SQLITE_PATH" default:"fuelbot_cache.db"`
	Redis      RedisConfig    `envconfig:"REDIS"`
	DynamoDB   DynamoDBConfig `envconfig:"DYNAMODB"`
}

// Open creates the backend named in cfg.Backend.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (StoreCloser, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(logger), nil
	case BackendSQLite, "":
		return NewSQLite(ctx, cfg.SQLitePath, logger)
	case BackendRedis:
		return NewRedis(ctx, cfg.Redis, logger)
	case BackendDynamoDB:
		return NewDynamoDB(cfg.DynamoDB, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
