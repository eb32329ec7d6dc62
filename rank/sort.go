package rank

import (
	"context"
	"sort"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
)

// SortNode 按 Score 降序排序，分数相同时按 ID 升序，保证结果与拉取完成顺序无关。
type SortNode struct{}

func (n *SortNode) Name() string        { return "rank.sort" }
func (n *SortNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	Sort(items)
	return items, nil
}

// Sort 原地排序，nil 排在最后。
func Sort(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID < b.ID
	})
}
