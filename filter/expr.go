package filter

import (
	"context"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/dsl"
)

// ParamExpr 是 RecommendContext.Params 中承载过滤表达式的 key。
const ParamExpr = "filter_expr"

// ExprNode 是基于 CEL 表达式的过滤 Node：表达式为 true 的候选保留。
//
// 表达式来源优先级：
//   - Expr 字段（配置固定）
//   - rctx.Params["filter_expr"]（请求级）
//
// 示例：
//   - `item.direct_count > 0`
//   - `"Mecha" in item.genres && item.sim_score >= 0.2`
type ExprNode struct {
	Expr string
}

func (n *ExprNode) Name() string {
	return "filter.expr"
}

func (n *ExprNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *ExprNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	expr, compile := n.Expr, dsl.Compile
	if expr == "" {
		// 请求级表达式来自客户端，不进入编译缓存
		if v, ok := rctx.Param(ParamExpr); ok {
			expr, _ = v.(string)
		}
		compile = dsl.CompileUncached
	}
	if expr == "" || len(items) == 0 {
		return items, nil
	}

	prg, err := compile(expr)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, "filter: invalid expression", err)
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		keep, err := prg.Evaluate(it, rctx)
		if err != nil {
			return nil, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, "filter: evaluate expression", err)
		}
		if keep {
			out = append(out, it)
		}
	}
	return out, nil
}
