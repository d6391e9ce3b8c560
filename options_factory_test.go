package cachesnap

import (
	"context"
	"testing"
	"time"
)

func TestStoreConfigWithDefaults(t *testing.T) {
	cfg := (StoreConfig{}).withDefaults()
	if cfg.Driver != DriverMemory {
		t.Fatalf("expected default driver memory, got %s", cfg.Driver)
	}
	if cfg.DefaultTTL != defaultCacheTTL {
		t.Fatalf("unexpected default ttl: %v", cfg.DefaultTTL)
	}
	if cfg.MemoryCleanupInterval != defaultMemoryCleanupInterval {
		t.Fatalf("unexpected cleanup interval: %v", cfg.MemoryCleanupInterval)
	}
	if cfg.Prefix != defaultCachePrefix {
		t.Fatalf("unexpected prefix: %s", cfg.Prefix)
	}
	if cfg.FileDir == "" {
		t.Fatalf("expected default file dir set")
	}
	if cfg.SQLTable != "cache_entries" {
		t.Fatalf("unexpected default sql table: %s", cfg.SQLTable)
	}
}

func TestStoreConfigWithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := (StoreConfig{
		DefaultTTL:            time.Second,
		MemoryCleanupInterval: 2 * time.Second,
		Prefix:                "svc",
		FileDir:               "/tmp/cache-test",
		SQLTable:              "custom",
	}).withDefaults()

	if cfg.DefaultTTL != time.Second {
		t.Fatalf("default ttl overwritten: %v", cfg.DefaultTTL)
	}
	if cfg.MemoryCleanupInterval != 2*time.Second {
		t.Fatalf("cleanup interval overwritten: %v", cfg.MemoryCleanupInterval)
	}
	if cfg.Prefix != "svc" {
		t.Fatalf("prefix overwritten: %q", cfg.Prefix)
	}
	if cfg.FileDir != "/tmp/cache-test" {
		t.Fatalf("file dir overwritten: %q", cfg.FileDir)
	}
	if cfg.SQLTable != "custom" {
		t.Fatalf("sql table overwritten: %q", cfg.SQLTable)
	}
}

func TestStoreOptionsMutateConfig(t *testing.T) {
	var cfg StoreConfig
	cfg = WithDefaultTTL(time.Second)(cfg)
	cfg = WithMemoryCleanupInterval(2 * time.Second)(cfg)
	cfg = WithPrefix("svc")(cfg)
	cfg = WithFileDir("/tmp/d")(cfg)
	cfg = WithSQL("sqlite", "dsn")(cfg)
	cfg = WithSQLTable("tbl")(cfg)
	client := newStubRedisClient()
	cfg = WithRedisClient(client)(cfg)

	if cfg.DefaultTTL != time.Second ||
		cfg.MemoryCleanupInterval != 2*time.Second ||
		cfg.Prefix != "svc" ||
		cfg.FileDir != "/tmp/d" ||
		cfg.SQLDriverName != "sqlite" ||
		cfg.SQLDSN != "dsn" ||
		cfg.SQLTable != "tbl" ||
		cfg.RedisClient != client {
		t.Fatalf("options did not apply correctly: %+v", cfg)
	}
}

func TestFactoryHelpers(t *testing.T) {
	ctx := context.Background()
	mem := NewStoreWith(ctx, DriverMemory)
	if mem.Driver() != DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if NewMemoryStore(ctx).Driver() != DriverMemory {
		t.Fatalf("expected memory helper driver")
	}
	if NewNullStore(ctx).Driver() != DriverNull {
		t.Fatalf("expected null helper driver")
	}
	if NewFileStore(ctx, t.TempDir()).Driver() != DriverFile {
		t.Fatalf("expected file helper driver")
	}

	redisClient := newStubRedisClient()
	rds := NewRedisStore(ctx, redisClient)
	if rds.Driver() != DriverRedis {
		t.Fatalf("expected redis driver")
	}
}

func TestNewStoreSQLMissingConfigReturnsErrorStore(t *testing.T) {
	store := NewStore(context.Background(), StoreConfig{
		Driver: DriverSQL,
	})
	if store.Driver() != DriverSQL {
		t.Fatalf("expected sql driver")
	}
	if _, _, err := store.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestErrorStorePropagatesEverywhere(t *testing.T) {
	store := NewStore(context.Background(), StoreConfig{Driver: DriverSQL})
	ctx := context.Background()

	if _, err := store.GetMany(ctx, "k"); err == nil {
		t.Fatalf("expected get many error")
	}
	if err := store.Set(ctx, "k", []byte("v"), 0); err == nil {
		t.Fatalf("expected set error")
	}
	if err := store.SetMany(ctx, map[string][]byte{"k": []byte("v")}, 0); err == nil {
		t.Fatalf("expected set many error")
	}
	if _, err := store.Add(ctx, "k", []byte("v"), 0); err == nil {
		t.Fatalf("expected add error")
	}
	if _, err := store.Increment(ctx, "k", 1, 0); err == nil {
		t.Fatalf("expected increment error")
	}
	if _, err := store.Decrement(ctx, "k", 1, 0); err == nil {
		t.Fatalf("expected decrement error")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Fatalf("expected delete error")
	}
	if err := store.DeleteMany(ctx, "k"); err == nil {
		t.Fatalf("expected delete many error")
	}
}
