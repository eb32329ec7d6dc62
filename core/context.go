package core

import (
	"sync"

	"github.com/rushteam/animerec/pkg/utils"
)

// RecommendContext 承载单次请求的用户画像与参数，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserName string

	// User 是本次请求构建的用户画像
	User *UserProfile

	// Weights 是本次请求使用的打分权重
	Weights Weights

	// MinScore / TopN 为请求参数，由调用方校验范围
	MinScore int
	TopN     int

	// Labels 是请求级标签，可驱动 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级扩展参数，例如 filter 表达式
	Params map[string]any

	// Stats 记录召回阶段的降级情况，供上层输出观测信息
	Stats *RecallStats

	memoMu sync.Mutex
	memo   map[string]memoEntry
}

type memoEntry struct {
	value any
	err   error
}

// RecallStats 汇总召回批次结果。
type RecallStats struct {
	Batches  int
	Degraded int
}

// GetUserProfile 获取用户画像。
func (rctx *RecommendContext) GetUserProfile() *UserProfile {
	if rctx == nil {
		return nil
	}
	return rctx.User
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Param 读取请求级参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}

// Memo 在单次请求内按 key 缓存 load 的结果（包括错误），load 对每个 key 最多执行一次。
// 用于召回阶段逐条执行的过滤器读取请求级数据（如用户屏蔽列表）。
func (rctx *RecommendContext) Memo(key string, load func() (any, error)) (any, error) {
	rctx.memoMu.Lock()
	defer rctx.memoMu.Unlock()
	if e, ok := rctx.memo[key]; ok {
		return e.value, e.err
	}
	v, err := load()
	if rctx.memo == nil {
		rctx.memo = make(map[string]memoEntry)
	}
	rctx.memo[key] = memoEntry{value: v, err: err}
	return v, err
}
