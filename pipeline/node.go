package pipeline

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// Kind 标记 Node 所属阶段，用于日志打点与链路校验。
type Kind string

const (
	KindRecall      Kind = "recall"      // 拉取并聚合候选，链路中有且只有一个，且位于首位
	KindFilter      Kind = "filter"      // 剔除候选
	KindRank        Kind = "rank"        // 打分、排序
	KindReRank      Kind = "rerank"      // 截断、打散
	KindPostProcess Kind = "postprocess" // 计数等旁路处理，不改变候选
)

// Node 是 Pipeline 的最小单元：输入候选，输出候选。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeBuilder 根据配置 map 构建 Node。
type NodeBuilder func(map[string]interface{}) (Node, error)

// NodeFunc 把函数包装成 Node。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

func (f *NodeFunc) Name() string { return f.NodeName }
func (f *NodeFunc) Kind() Kind   { return f.NodeKind }

func (f *NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return f.Fn(ctx, rctx, items)
}
