package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 相似度 → 排序 → 过滤 → 截断。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各节点，任一节点出错即中止，错误以节点名为前缀。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		logging.Ctx(ctx).Debug().
			Str("node", node.Name()).
			Str("kind", string(node.Kind())).
			Int("in", len(cur)).
			Int("out", len(next)).
			Dur("took", time.Since(start)).
			Msg("pipeline node done")
		cur = next
	}
	return cur, nil
}

// Validate 检查链路结构：第一个节点必须是召回节点，且召回节点只有一个。
func (p *Pipeline) Validate() error {
	if p == nil || len(p.Nodes) == 0 {
		return errors.New("pipeline: no nodes")
	}
	if k := p.Nodes[0].Kind(); k != KindRecall {
		return fmt.Errorf("pipeline: first node %s is %s, want %s", p.Nodes[0].Name(), k, KindRecall)
	}
	for _, n := range p.Nodes[1:] {
		if n.Kind() == KindRecall {
			return fmt.Errorf("pipeline: duplicate recall node %s", n.Name())
		}
	}
	return nil
}

// InsertAfter 返回在第一个 kind 节点之后插入 node 的新 Pipeline，原 Pipeline 不变。
// 找不到 kind 时 node 追加到末尾。
func (p *Pipeline) InsertAfter(kind Kind, node Node) *Pipeline {
	nodes := make([]Node, 0, len(p.Nodes)+1)
	inserted := false
	for _, n := range p.Nodes {
		nodes = append(nodes, n)
		if !inserted && n.Kind() == kind {
			nodes = append(nodes, node)
			inserted = true
		}
	}
	if !inserted {
		nodes = append(nodes, node)
	}
	return &Pipeline{Nodes: nodes}
}
