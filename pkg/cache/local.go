package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// localCache 基于 expirable LRU 的本地缓存实现
type localCache struct {
	config LocalConfig
	lru    *lru.LRU[string, interface{}]
}

// NewLocalCache 创建本地缓存
func NewLocalCache(config LocalConfig) Cache {
	if config.MaxSize <= 0 {
		config.MaxSize = 1000
	}
	if config.DefaultExpiration <= 0 {
		config.DefaultExpiration = 5 * time.Minute
	}
	return &localCache{
		config: config,
		lru:    lru.NewLRU[string, interface{}](config.MaxSize, nil, config.DefaultExpiration),
	}
}

// Get 获取缓存值
func (lc *localCache) Get(ctx context.Context, key string) (interface{}, bool) {
	return lc.lru.Get(key)
}

// Set 设置缓存值（expirable LRU 是全局 TTL，传入的 expiration 仅作兼容保留）
func (lc *localCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	lc.lru.Add(key, value)
	return nil
}

// Delete 删除缓存
func (lc *localCache) Delete(ctx context.Context, key string) error {
	lc.lru.Remove(key)
	return nil
}

// Exists 检查键是否存在
func (lc *localCache) Exists(ctx context.Context, key string) bool {
	return lc.lru.Contains(key)
}

// Clear 清空所有缓存
func (lc *localCache) Clear(ctx context.Context) error {
	lc.lru.Purge()
	return nil
}

// Close 关闭缓存连接
func (lc *localCache) Close() error { return nil }
