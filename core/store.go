package core

import (
	"context"
	"time"
)

// Store 是键值存储抽象，由 store 包实现（MemoryStore / RedisStore）。
// 链路中有两处使用：anilist.CachedSource 缓存上游批次，filter 读取黑名单与用户屏蔽列表。
// 值一律为原始字节，编码由调用方决定（目前都是 JSON）。
type Store interface {
	// Name 返回后端名称，用于日志
	Name() string

	// Get 读取 key；不存在或已过期返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key，ttl <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// BatchGet 批量读取，结果只包含存在的 key
	BatchGet(ctx context.Context, keys []string) (map[string][]byte, error)

	Close() error
}

// ErrStoreNotFound 表示 key 不存在或已过期。
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 报告 err 是否为存储层的 NOT_FOUND（不匹配其他模块的 NOT_FOUND）。
func IsStoreNotFound(err error) bool {
	return Match(err, ModuleStore, ErrorCodeNotFound)
}
