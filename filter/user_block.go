package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
)

// UserBlockFilter 过滤掉用户自己屏蔽的作品，屏蔽列表存放在 Store 的 {KeyPrefix}:{UserName}。
//
// 屏蔽列表每个请求只读取一次（缓存在 RecommendContext 上）。
// 读取失败时整次请求都不按屏蔽列表过滤，推荐照常返回。
type UserBlockFilter struct {
	Store BlacklistStore

	// KeyPrefix 默认 "user:block"
	KeyPrefix string
}

// NewUserBlockFilter 创建用户屏蔽过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store BlacklistStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

// Key 返回用户屏蔽列表在 Store 中的 key。
func (f *UserBlockFilter) Key(userName string) string {
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = "user:block"
	}
	return prefix + ":" + userName
}

func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	m *core.MediaItem,
) (bool, error) {
	if m == nil || rctx == nil || rctx.UserName == "" || f.Store == nil {
		return false, nil
	}

	key := f.Key(rctx.UserName)
	v, err := rctx.Memo(f.Name()+":"+key, func() (any, error) {
		ids, err := f.Store.GetBlacklist(ctx, key)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("user block list unavailable")
			return nil, err
		}
		return toIDSet(ids), nil
	})
	if err != nil {
		return false, nil
	}
	blocked, _ := v.(map[int64]struct{})
	_, ok := blocked[m.ID]
	return ok, nil
}
