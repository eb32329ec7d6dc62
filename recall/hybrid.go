package recall

import (
	"context"
	"sort"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/pkg/metrics"
)

// HybridNode 是混合召回 Node，分两个阶段拉取并合并候选：
//  1. 每个喜欢的作品拉取一次相似作品（推荐批次）
//  2. 用户类型基线中每个类型拉取一次榜单（类型批次）
//
// 阶段内并发、阶段间串行：阶段 1 的所有批次合并完成后才开始阶段 2。
// 输入 items 被忽略，输出为去重后的候选（首次出现顺序）。
type HybridNode struct {
	Client core.MediaSource

	// Fanout 为空时使用 core.DefaultRecallConfig 的并发上限与超时
	Fanout *Fanout

	// Filters 为空时使用已看过滤
	Filters []filter.Filter
}

func (n *HybridNode) Name() string        { return "recall.hybrid" }
func (n *HybridNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *HybridNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	user := rctx.GetUserProfile()
	if user == nil || len(user.Liked) == 0 || n.Client == nil {
		return nil, nil
	}

	fan := n.Fanout
	if fan == nil {
		def := &core.DefaultRecallConfig{}
		fan = &Fanout{Timeout: def.DefaultTimeout(), MaxConcurrent: def.DefaultMaxConcurrent()}
	}
	set := NewCandidateSet(n.Filters...)

	similar := make([]Source, 0, len(user.Liked))
	for _, li := range user.Liked {
		similar = append(similar, &SimilarSource{Client: n.Client, MediaID: li.ID})
	}
	batches, err := fan.Run(ctx, rctx, similar)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		set.AddRecommendations(ctx, rctx, b)
	}
	n.record(rctx, batches)

	genres := user.Genres()
	sort.Strings(genres)
	bySource := make([]Source, 0, len(genres))
	for _, g := range genres {
		bySource = append(bySource, &GenreSource{Client: n.Client, Genre: g})
	}
	batches, err = fan.Run(ctx, rctx, bySource)
	if err != nil {
		return nil, err
	}
	for _, b := range batches {
		set.AddGenreBatch(ctx, rctx, b)
	}
	n.record(rctx, batches)

	items := set.Items()
	metrics.Candidates.Observe(float64(len(items)))
	logging.Ctx(ctx).Debug().
		Int("liked", len(user.Liked)).
		Int("genres", len(genres)).
		Int("candidates", len(items)).
		Msg("hybrid recall done")
	return items, nil
}

func (n *HybridNode) record(rctx *core.RecommendContext, batches []Batch) {
	if rctx == nil {
		return
	}
	if rctx.Stats == nil {
		rctx.Stats = &core.RecallStats{}
	}
	for _, b := range batches {
		rctx.Stats.Batches++
		if b.Degraded {
			rctx.Stats.Degraded++
		}
	}
}
