// Package builders 注册内置 Node 的配置构建逻辑。
package builders

import (
	"fmt"

	"github.com/rushteam/animerec/config"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/conv"
	"github.com/rushteam/animerec/rank"
	"github.com/rushteam/animerec/recall"
	"github.com/rushteam/animerec/rerank"
)

// init 向默认注册表注册无外部依赖的 Node；依赖数据源/存储的 Node 通过 NewRegistry 获取。
func init() {
	registerStatic(config.Register)
}

// Deps 是需要外部依赖的 Node 所用的依赖。
type Deps struct {
	// Source 为 recall.hybrid 提供上游数据
	Source core.MediaSource
	// Store 为 filter 中的 blacklist / user_block 提供存储（可选）
	Store core.Store
	// RecallConfig 提供 recall.hybrid 未配置时的并发上限与超时（可选）
	RecallConfig core.RecallConfig
	// Filters 是 recall.hybrid 在合并批次时逐条执行的过滤器；为空时使用已看过滤
	Filters []filter.Filter
}

// NewRegistry 返回包含全部内置 Node 的独立注册表，依赖 d 的 Node 绑定到 d。
// 每个 Engine 使用自己的注册表，不会与其他 Engine 的数据源或存储互相覆盖。
func NewRegistry(d Deps) *config.Registry {
	r := config.NewRegistry()
	registerStatic(r.Register)
	r.Register("recall.hybrid", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return BuildHybridNode(d, cfg)
	})
	r.Register("filter", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return BuildFilterNode(d, cfg)
	})
	return r
}

func registerStatic(register func(string, config.NodeBuilder)) {
	register("rank.similarity", BuildSimilarityNode)
	register("rank.sort", BuildSortNode)
	register("rerank.topn", BuildTopNNode)
	register("rerank.diversity", BuildDiversityNode)
	register("filter.expr", BuildExprNode)
}

// BuildHybridNode 支持的配置：timeout（"10s" 或秒数）、max_concurrent、
// filters（与 filter 节点相同的格式，追加在 Deps.Filters 之后）。
func BuildHybridNode(d Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	if d.Source == nil {
		return nil, fmt.Errorf("recall.hybrid: media source not installed")
	}
	rc := d.RecallConfig
	if rc == nil {
		rc = &core.DefaultRecallConfig{}
	}
	fanout := &recall.Fanout{
		Timeout:       conv.ConfigGetDuration(cfg, "timeout", rc.DefaultTimeout()),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", int64(rc.DefaultMaxConcurrent()))),
	}

	filters := append([]filter.Filter(nil), d.Filters...)
	if raw, ok := cfg["filters"]; ok {
		extra, err := buildFilters(d, raw)
		if err != nil {
			return nil, fmt.Errorf("recall.hybrid: %w", err)
		}
		if len(filters) == 0 {
			filters = append(filters, &filter.WatchedFilter{})
		}
		filters = append(filters, extra...)
	}
	return &recall.HybridNode{Client: d.Source, Fanout: fanout, Filters: filters}, nil
}

func BuildSimilarityNode(map[string]interface{}) (pipeline.Node, error) {
	return &rank.SimilarityNode{}, nil
}

func BuildSortNode(map[string]interface{}) (pipeline.Node, error) {
	return &rank.SortNode{}, nil
}

// BuildTopNNode 支持的配置：n（缺省为 0，使用请求参数 top_n）。
func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:  conv.ConfigGet(cfg, "label_key", "genre"),
		MaxPerKey: int(conv.ConfigGetInt64(cfg, "max_per_key", 1)),
	}, nil
}

// BuildExprNode 支持的配置：expr（为空时读取请求参数 filter_expr）。
func BuildExprNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &filter.ExprNode{Expr: conv.ConfigGet(cfg, "expr", "")}, nil
}

// BuildFilterNode 支持的 filters：watched、blacklist（item_ids / key）、user_block（key_prefix）。
func BuildFilterNode(d Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	filters, err := buildFilters(d, cfg["filters"])
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFilters(d Deps, raw interface{}) ([]filter.Filter, error) {
	filtersConfig, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "watched":
			filters = append(filters, &filter.WatchedFilter{})
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["item_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			var adapter *filter.StoreAdapter
			if key != "" {
				if d.Store == nil {
					return nil, fmt.Errorf("blacklist key %q configured but no store installed", key)
				}
				adapter = filter.NewStoreAdapter(d.Store)
			}
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))
		case "user_block":
			if d.Store == nil {
				return nil, fmt.Errorf("user_block filter configured but no store installed")
			}
			prefix := conv.ConfigGet(filterMap, "key_prefix", "")
			filters = append(filters, filter.NewUserBlockFilter(filter.NewStoreAdapter(d.Store), prefix))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return filters, nil
}
