package rerank

import (
	"context"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
)

// Diversity 是按类别打散的重排节点：同一类别最多保留 MaxPerKey 个（保持原有顺序）。
// 类别来源：
//   - LabelKey 为空或 "genre"：作品的第一个类型
//   - 其他：label[LabelKey].Value
//
// 没有类别的候选不受限制。默认 Pipeline 不包含此节点，需通过配置开启。
type Diversity struct {
	LabelKey  string
	MaxPerKey int // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	limit := n.MaxPerKey
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cate := n.category(it)
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			continue
		}
		seen[cate]++
		out = append(out, it)
	}
	return out, nil
}

func (n *Diversity) category(it *core.Item) string {
	if n.LabelKey == "" || n.LabelKey == "genre" {
		if len(it.Genres) > 0 {
			return it.Genres[0]
		}
		return ""
	}
	if lbl, ok := it.Labels[n.LabelKey]; ok {
		return lbl.Value
	}
	return ""
}
