package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/logging"
)

// FilterNode 是过滤 Node，可以组合多个过滤器对候选列表做二次过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if drop, _ := Apply(ctx, rctx, n.Filters, &item.MediaItem); drop {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

// Apply 依次执行过滤器，返回是否过滤以及命中的过滤器名。
// 过滤器出错时记录日志但不中断流程（视为未命中）。
func Apply(ctx context.Context, rctx *core.RecommendContext, filters []Filter, m *core.MediaItem) (bool, string) {
	for _, f := range filters {
		ok, err := f.ShouldFilter(ctx, rctx, m)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("filter", f.Name()).Msg("filter failed, keeping item")
			continue
		}
		if ok {
			return true, f.Name()
		}
	}
	return false, ""
}
