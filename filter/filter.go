package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个作品是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
//
// 召回聚合时每个批次条目都会在累加打分之前经过过滤器，
// 因此入参是 MediaItem 而不是累加中的 Item。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断作品是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, m *core.MediaItem) (bool, error)
}
