package snapcore

import (
	"context"
	"time"
)

// Store is the shared cache backend contract the recorder instruments.
// Every backend exposes exactly this operation set; the recorder wraps it
// without changing behavior.
type Store interface {
	Driver() Driver
	Get(ctx context.Context, key string) ([]byte, bool, error)
	GetMany(ctx context.Context, keys ...string) (map[string][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	SetMany(ctx context.Context, values map[string][]byte, ttl time.Duration) error
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Increment(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Decrement(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// Driver identifies cache backend.
type Driver string

const (
	DriverNull   Driver = "null"
	DriverFile   Driver = "file"
	DriverMemory Driver = "memory"
	DriverSQL    Driver = "sql"
	DriverRedis  Driver = "redis"
)

// DefaultAlias is the conventional name of the primary cache backend.
// Events for it omit the alias in their serialized label.
const DefaultAlias = "default"
