// Package animerec 是基于 AniList 数据的混合动画推荐服务。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Rank → ReRank → PostProcess）
// - 召回 = 已喜欢作品的相似推荐 + 喜欢类型的高分榜单，两阶段有界并发拉取
// - 单次拉取失败只降级为空批次，不影响整次推荐
// - 排序确定：分数降序，同分按 id 升序
package animerec

import (
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/recommend"
)

// 轻量 facade：便于直接 import "animerec" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	Engine  = recommend.Engine
	Request = recommend.Request
	Result  = recommend.Result

	Item      = core.Item
	MediaItem = core.MediaItem
	Weights   = core.Weights
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewEngine 见 recommend.NewEngine。
func NewEngine(source core.MediaSource, cfg recommend.Config, opts ...recommend.Option) (*Engine, error) {
	return recommend.NewEngine(source, cfg, opts...)
}
