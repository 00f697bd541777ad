package cache

import (
	"context"
	"testing"
	"time"
)

func TestLocalCache(t *testing.T) {
	config := LocalConfig{
		MaxSize:           100,
		DefaultExpiration: 5 * time.Minute,
	}

	cache := NewLocalCache(config)
	defer cache.Close()

	ctx := context.Background()

	t.Run("Set and Get", func(t *testing.T) {
		key := "test_key"
		value := "test_value"

		if err := cache.Set(ctx, key, value, time.Minute); err != nil {
			t.Errorf("Failed to set cache: %v", err)
		}

		if retrieved, exists := cache.Get(ctx, key); !exists {
			t.Error("Cache value not found")
		} else if retrieved != value {
			t.Errorf("Expected %v, got %v", value, retrieved)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache.Set(ctx, "gone", 1, time.Minute)
		cache.Delete(ctx, "gone")
		if cache.Exists(ctx, "gone") {
			t.Error("key should be deleted")
		}
	})
}

func TestGoCacheBackend(t *testing.T) {
	cache := NewGoCache(LocalConfig{DefaultExpiration: time.Minute, CleanupInterval: 5 * time.Minute})
	defer cache.Close()

	ctx := context.Background()
	if err := cache.Set(ctx, "k", 42, time.Minute); err != nil {
		t.Fatalf("Failed to set cache: %v", err)
	}
	if v, ok := cache.Get(ctx, "k"); !ok || v != 42 {
		t.Errorf("Expected 42, got %v", v)
	}
	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}
	if cache.Exists(ctx, "k") {
		t.Error("cache should be empty after Clear")
	}
}
