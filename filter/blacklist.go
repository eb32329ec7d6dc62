package filter

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/animerec/core"
)

// DefaultBlacklistRefresh 是 Store 黑名单快照的默认刷新间隔。
const DefaultBlacklistRefresh = 30 * time.Second

// BlacklistFilter 屏蔽全局黑名单中的作品：配置中的固定 ID 加上 Store 中 Key 对应的列表。
//
// 召回阶段每条批次记录都会经过过滤器，所以 Store 列表按 Refresh 间隔整体加载为快照，
// 而不是逐条读取。刷新失败时沿用上一次快照；从未加载成功时返回错误（FilterNode 视为未命中）。
type BlacklistFilter struct {
	ItemIDs map[int64]struct{}

	Store   BlacklistStore
	Key     string
	Refresh time.Duration

	mu       sync.Mutex
	snapshot map[int64]struct{}
	loadedAt time.Time
	now      func() time.Time
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]int64, error)
}

// NewBlacklistFilter 创建黑名单过滤器；storeAdapter 为 nil 或 key 为空时只使用 itemIDs。
func NewBlacklistFilter(itemIDs []int64, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{
		ItemIDs: toIDSet(itemIDs),
		Key:     key,
		Refresh: DefaultBlacklistRefresh,
	}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	m *core.MediaItem,
) (bool, error) {
	if m == nil {
		return true, nil
	}
	if _, ok := f.ItemIDs[m.ID]; ok {
		return true, nil
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}

	ids, err := f.stored(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[m.ID]
	return ok, nil
}

// stored 返回 Store 黑名单快照，过期时重新加载。
func (f *BlacklistFilter) stored(ctx context.Context) (map[int64]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now
	if f.now != nil {
		now = f.now
	}
	refresh := f.Refresh
	if refresh <= 0 {
		refresh = DefaultBlacklistRefresh
	}
	if f.snapshot != nil && now().Sub(f.loadedAt) < refresh {
		return f.snapshot, nil
	}

	list, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil {
		if f.snapshot != nil {
			return f.snapshot, nil
		}
		return nil, err
	}
	f.snapshot = toIDSet(list)
	f.loadedAt = now()
	return f.snapshot, nil
}

func toIDSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
