// Package recommend 组装完整的推荐流程：画像构建 → 混合召回 → 相似度 → 排序 → 截断。
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/animerec/config/builders"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/pkg/metrics"
	"github.com/rushteam/animerec/profile"
	"github.com/rushteam/animerec/rank"
	"github.com/rushteam/animerec/recall"
	"github.com/rushteam/animerec/rerank"
)

// Config 是推荐引擎配置。
type Config struct {
	Weights core.Weights `koanf:"weights"`

	// MaxConcurrent 为每个召回阶段的最大并发拉取数
	MaxConcurrent int `koanf:"max_concurrent" validate:"gte=1"`
	// FetchTimeout 为单次拉取超时，超时按拉取失败处理
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"gt=0"`

	DefaultMinScore int `koanf:"default_min_score" validate:"gte=0,lte=100"`
	DefaultTopN     int `koanf:"default_top_n" validate:"gte=1,lte=50"`

	// BlacklistIDs 为全局屏蔽的作品
	BlacklistIDs []int64 `koanf:"blacklist_ids"`
	// BlacklistKey 为 Store 中的黑名单 key（JSON 数组），需要配置存储
	BlacklistKey string `koanf:"blacklist_key"`
	// UserBlockPrefix 非空时按 {prefix}:{username} 读取用户自己的屏蔽列表，需要配置存储
	UserBlockPrefix string `koanf:"user_block_prefix"`

	// PipelineFile 非空时从 YAML/JSON 文件构建 Pipeline，替代默认链路
	PipelineFile string `koanf:"pipeline_file"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	rc := &core.DefaultRecallConfig{}
	return Config{
		Weights:         core.DefaultWeights(),
		MaxConcurrent:   rc.DefaultMaxConcurrent(),
		FetchTimeout:    rc.DefaultTimeout(),
		DefaultMinScore: core.DefaultMinScore,
		DefaultTopN:     core.DefaultTopN,
	}
}

func (c Config) DefaultMaxConcurrent() int {
	return c.MaxConcurrent
}

func (c Config) DefaultTimeout() time.Duration {
	return c.FetchTimeout
}

// Request 是一次推荐请求。MinScore/TopN 的范围由调用方校验。
type Request struct {
	UserName string
	MinScore int
	TopN     int
	// Filter 为可选的 CEL 表达式，只保留表达式为 true 的候选
	Filter string
}

// Result 是推荐结果与本次请求的观测信息。
type Result struct {
	Items []*core.Item

	Liked      int
	Watched    int
	Candidates int

	// Batches / Degraded 为召回批次总数与降级为空的批次数
	Batches  int
	Degraded int
}

// Engine 是推荐引擎，可并发使用；每个请求独立构建画像与候选集合。
type Engine struct {
	source   core.MediaSource
	cfg      Config
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
}

// Option 用于定制 Engine。
type Option func(*options)

type options struct {
	store    core.Store
	pipeline *pipeline.Pipeline
	filters  []filter.Filter
}

// WithStore 提供黑名单等节点所需的存储。
func WithStore(s core.Store) Option {
	return func(o *options) { o.store = s }
}

// WithPipeline 直接指定 Pipeline（优先于 PipelineFile）。
// 此时 BlacklistIDs / BlacklistKey / UserBlockPrefix 与 WithFilters 不生效，由调用方自行组装过滤。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(o *options) { o.pipeline = p }
}

// WithFilters 追加召回阶段逐条执行的过滤器（在已看过滤之后）。
func WithFilters(filters ...filter.Filter) Option {
	return func(o *options) { o.filters = append(o.filters, filters...) }
}

// NewEngine 创建推荐引擎。
func NewEngine(source core.MediaSource, cfg Config, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, fmt.Errorf("recommend: media source is required")
	}
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = def.DefaultTopN
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	e := &Engine{
		source: source,
		cfg:    cfg,
		log:    logging.Component("recommend"),
	}

	if o.pipeline != nil {
		if err := o.pipeline.Validate(); err != nil {
			return nil, fmt.Errorf("recommend: %w", err)
		}
		e.pipeline = o.pipeline
		return e, nil
	}

	filters, err := entryFilters(cfg, o)
	if err != nil {
		return nil, err
	}
	if cfg.PipelineFile != "" {
		e.pipeline, err = loadPipeline(cfg, source, o.store, filters)
	} else {
		e.pipeline = e.defaultPipeline(filters)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// entryFilters 返回召回阶段逐条执行的过滤器：已看 → WithFilters → 黑名单 → 用户屏蔽。
// 默认链路与 pipeline 文件中的 recall.hybrid 共用。
func entryFilters(cfg Config, o *options) ([]filter.Filter, error) {
	filters := []filter.Filter{&filter.WatchedFilter{}}
	filters = append(filters, o.filters...)
	if len(cfg.BlacklistIDs) > 0 || cfg.BlacklistKey != "" {
		var adapter *filter.StoreAdapter
		if cfg.BlacklistKey != "" {
			if o.store == nil {
				return nil, fmt.Errorf("recommend: blacklist key %q requires a store", cfg.BlacklistKey)
			}
			adapter = filter.NewStoreAdapter(o.store)
		}
		filters = append(filters, filter.NewBlacklistFilter(cfg.BlacklistIDs, adapter, cfg.BlacklistKey))
	}
	if cfg.UserBlockPrefix != "" {
		if o.store == nil {
			return nil, fmt.Errorf("recommend: user block prefix %q requires a store", cfg.UserBlockPrefix)
		}
		filters = append(filters, filter.NewUserBlockFilter(filter.NewStoreAdapter(o.store), cfg.UserBlockPrefix))
	}
	return filters, nil
}

// defaultPipeline: recall.hybrid → rank.similarity → rank.sort → filter.expr → rerank.topn。
func (e *Engine) defaultPipeline(filters []filter.Filter) *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.HybridNode{
			Client:  e.source,
			Fanout:  &recall.Fanout{Timeout: e.cfg.FetchTimeout, MaxConcurrent: e.cfg.MaxConcurrent},
			Filters: filters,
		},
		&rank.SimilarityNode{},
		&rank.SortNode{},
		&filter.ExprNode{},
		&rerank.TopNNode{},
	}}
}

// loadPipeline 用本 Engine 独立的注册表构建 pipeline 文件，recall.hybrid 使用 filters 做逐条过滤。
func loadPipeline(cfg Config, source core.MediaSource, s core.Store, filters []filter.Filter) (*pipeline.Pipeline, error) {
	pc, err := pipeline.Load(cfg.PipelineFile)
	if err != nil {
		return nil, fmt.Errorf("recommend: load pipeline %s: %w", cfg.PipelineFile, err)
	}
	reg := builders.NewRegistry(builders.Deps{Source: source, Store: s, RecallConfig: cfg, Filters: filters})
	p, err := reg.Build(pc)
	if err != nil {
		return nil, fmt.Errorf("recommend: build pipeline %s: %w", cfg.PipelineFile, err)
	}
	return p, nil
}

// Config 返回引擎使用的配置（已填充默认值）。
func (e *Engine) Config() Config {
	return e.cfg
}

// Recommend 返回按分数降序排列的前 topN 个候选。
func (e *Engine) Recommend(ctx context.Context, userName string, minScore, topN int) ([]*core.Item, error) {
	res, err := e.RecommendDetailed(ctx, Request{UserName: userName, MinScore: minScore, TopN: topN})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// RecommendDetailed 执行一次推荐并返回观测信息。
//   - 喜欢列表为空时直接返回空结果，不再拉取全部列表、相似作品与类型榜单
//   - 单次召回拉取失败只会降级，不会让请求失败
//   - 画像构建失败（上游列表不可用或数据缺失）返回错误
func (e *Engine) RecommendDetailed(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	log := e.log.With().Str("user", req.UserName).Str("request_id", logging.RequestIDFromContext(ctx)).Logger()

	res, err := e.recommend(ctx, req)
	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		metrics.Recommendations.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("recommend failed")
		return nil, err
	case len(res.Items) == 0:
		metrics.Recommendations.WithLabelValues("empty").Inc()
	default:
		metrics.Recommendations.WithLabelValues("ok").Inc()
	}

	log.Info().
		Int("liked", res.Liked).
		Int("candidates", res.Candidates).
		Int("returned", len(res.Items)).
		Int("batches", res.Batches).
		Int("degraded", res.Degraded).
		Dur("took", time.Since(start)).
		Msg("recommend done")
	return res, nil
}

func (e *Engine) recommend(ctx context.Context, req Request) (*Result, error) {
	completed, err := e.source.CompletedList(ctx, req.UserName)
	if err != nil {
		return nil, fmt.Errorf("fetch completed list: %w", err)
	}
	user, err := profile.FromCompleted(req.UserName, completed, float64(req.MinScore))
	if err != nil {
		return nil, err
	}

	res := &Result{Items: []*core.Item{}, Liked: len(user.Liked)}
	if len(user.Liked) == 0 {
		return res, nil
	}

	all, err := e.source.AllList(ctx, req.UserName)
	if err != nil {
		return nil, fmt.Errorf("fetch all list: %w", err)
	}
	if err := profile.ApplyWatched(user, all); err != nil {
		return nil, err
	}
	res.Watched = len(user.WatchedIDs)

	rctx := &core.RecommendContext{
		UserName: req.UserName,
		User:     user,
		Weights:  e.cfg.Weights,
		MinScore: req.MinScore,
		TopN:     req.TopN,
		Params:   map[string]any{},
		Stats:    &core.RecallStats{},
	}
	if req.Filter != "" {
		rctx.Params[filter.ParamExpr] = req.Filter
	}

	// 候选数在召回之后、过滤截断之前统计
	var candidates int
	counted := e.pipeline.InsertAfter(pipeline.KindRecall, &pipeline.NodeFunc{
		NodeName: "postprocess.count",
		NodeKind: pipeline.KindPostProcess,
		Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
			candidates = len(items)
			return items, nil
		},
	})
	items, err := counted.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	if items != nil {
		res.Items = items
	}
	res.Candidates = candidates
	res.Batches = rctx.Stats.Batches
	res.Degraded = rctx.Stats.Degraded
	return res, nil
}
