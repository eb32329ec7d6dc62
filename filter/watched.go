package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// WatchedFilter 是已看过滤器：ID 在观看记录中，或罗马音标题归一化后与观看记录重合。
// 标题规则用于拦截续作/分季（它们的 ID 不同）。
type WatchedFilter struct{}

func (f *WatchedFilter) Name() string {
	return "filter.watched"
}

func (f *WatchedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	m *core.MediaItem,
) (bool, error) {
	if m == nil {
		return true, nil
	}
	return rctx.GetUserProfile().IsExcluded(m), nil
}
